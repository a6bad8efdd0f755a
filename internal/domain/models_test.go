package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostAndGroupString(t *testing.T) {
	post := &Post{Text: "Очень длинный текст поста, больше пятнадцати символов"}
	group := &Group{Title: "Котики", Slug: "cats"}

	assert.Equal(t, "Очень длинный т", post.String())
	assert.Equal(t, "Котики", group.String())
	assert.Equal(t, "short", (&Post{Text: "short"}).String())
	assert.Equal(t, "коммент", (&Comment{Text: "коммент"}).String())
}

func TestUserFullName(t *testing.T) {
	assert.Equal(t, "leo", (&User{Username: "leo"}).FullName())
	assert.Equal(t, "Лев Толстой", (&User{Username: "leo", FirstName: "Лев", LastName: "Толстой"}).FullName())
	assert.Equal(t, "Толстой", (&User{Username: "leo", LastName: "Толстой"}).FullName())
}
