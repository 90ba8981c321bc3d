package main

import (
	"log"

	"yashubustudio/annotator/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		log.Fatalf("annotator: %v", err)
	}
}
