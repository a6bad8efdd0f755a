package web

import "net/http"

type aboutData struct {
	Title       string
	Description string
}

func (s *Server) aboutAuthor(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "about.html", aboutData{
		Title:       "Об авторе",
		Description: "Начинающий разработчик. Пишу Yatube, чтобы разобраться с веб-разработкой на Go.",
	})
}

func (s *Server) aboutTech(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "about.html", aboutData{
		Title:       "О технологиях",
		Description: "Go, chi, gorm, html/template, PostgreSQL и MySQL, websocket для живых комментариев.",
	})
}
