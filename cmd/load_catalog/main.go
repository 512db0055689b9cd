package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/yungbote/pantry-backend/internal/app"
	"github.com/yungbote/pantry-backend/internal/services"
	"github.com/yungbote/pantry-backend/internal/services/catalogfile"
)

func main() {
	var ingredientsPath, tagsPath string
	var dryRun bool
	flag.StringVar(&ingredientsPath, "ingredients", "", "ingredients file (.json, .yaml, .csv)")
	flag.StringVar(&tagsPath, "tags", "", "tags file (.json, .yaml, .csv)")
	flag.BoolVar(&dryRun, "dry-run", false, "parse the files and print counts without writing")
	flag.Parse()

	if ingredientsPath == "" && tagsPath == "" {
		fmt.Println("nothing to load; pass -ingredients and/or -tags")
		flag.Usage()
		os.Exit(2)
	}

	ingredients, err := readIngredients(ingredientsPath)
	if err != nil {
		fmt.Printf("read ingredients: %v\n", err)
		os.Exit(1)
	}
	tags, err := readTags(tagsPath)
	if err != nil {
		fmt.Printf("read tags: %v\n", err)
		os.Exit(1)
	}
	if dryRun {
		fmt.Printf("[dry-run] ingredients=%d tags=%d\n", len(ingredients), len(tags))
		return
	}

	_ = godotenv.Load()
	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx := context.Background()
	if len(ingredients) > 0 {
		res, err := application.Services.Ingredient.EnsureIngredients(ctx, ingredients)
		if err != nil {
			fmt.Printf("load ingredients: %v\n", err)
			application.Close()
			os.Exit(1)
		}
		fmt.Printf("ingredients: total=%d created=%d\n", res.Total, res.Created)
	}
	if len(tags) > 0 {
		res, err := application.Services.Tag.EnsureTags(ctx, tags)
		if err != nil {
			fmt.Printf("load tags: %v\n", err)
			application.Close()
			os.Exit(1)
		}
		fmt.Printf("tags: total=%d created=%d\n", res.Total, res.Created)
	}
	fmt.Println("done")
}

func readIngredients(path string) ([]services.IngredientSeed, error) {
	if path == "" {
		return nil, nil
	}
	return catalogfile.ReadIngredients(path)
}

func readTags(path string) ([]services.TagSeed, error) {
	if path == "" {
		return nil, nil
	}
	return catalogfile.ReadTags(path)
}
