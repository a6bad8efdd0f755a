package main

import (
	"github.com/UkralStul/yatube/internal/admin"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	admin.Execute()
}
