// Command mealplanner runs the family meal-plan service.
package main

import (
	"context"
	"log"

	"github.com/dalemusser/mealplanner/internal/app/bootstrap"
	"github.com/dalemusser/waffle/app"
)

func main() {
	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		log.Fatal(err)
	}
}
