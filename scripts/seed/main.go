// Seed creates a demo account and fills it with todos. Run from project root: go run ./scripts/seed
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"todoapp/internal/config"
	"todoapp/internal/database"
	"todoapp/internal/models"
	"todoapp/internal/repository"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const (
	demoEmail    = "demo@example.com"
	demoPassword = "password123"
)

var priorities = []models.Priority{models.PriorityHigh, models.PriorityMedium, models.PriorityLow}

func main() {
	total := flag.Int("n", 1000, "number of todos to insert")
	batchSize := flag.Int("batch", 500, "rows per insert statement")
	flag.Parse()

	_ = godotenv.Load()
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Config failed:", err)
		os.Exit(1)
	}
	db, err := database.Open(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "DB connection failed:", err)
		os.Exit(1)
	}
	defer database.Close(db)
	if err := database.Migrate(ctx, db); err != nil {
		fmt.Fprintln(os.Stderr, "Schema failed:", err)
		os.Exit(1)
	}

	store := repository.New(db)
	user, err := demoUser(ctx, store)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Demo user failed:", err)
		os.Exit(1)
	}

	start := time.Now()
	for done := 0; done < *total; done += *batchSize {
		n := min(*batchSize, *total-done)
		todos := make([]models.Todo, n)
		for i := range todos {
			k := done + i + 1
			desc := fmt.Sprintf("Description for todo %d", k)
			todos[i] = models.Todo{
				Title:       fmt.Sprintf("Todo %d", k),
				Description: &desc,
				Priority:    priorities[k%len(priorities)],
			}
			if k%4 == 0 {
				todos[i].MarkCompleted(time.Now())
			}
		}
		if err := store.Todos(user.ID).CreateBatch(ctx, todos, *batchSize); err != nil {
			fmt.Fprintln(os.Stderr, "Insert failed:", err)
			os.Exit(1)
		}
		fmt.Printf("\rInserted %d / %d", done+n, *total)
	}

	fmt.Printf("\nDone: %d todos for %s (password %q) in %v\n", *total, demoEmail, demoPassword, time.Since(start))
}

func demoUser(ctx context.Context, store *repository.Store) (*models.User, error) {
	existing, err := store.Users().FindByEmail(ctx, demoEmail)
	if err != nil || existing != nil {
		return existing, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	hashed := string(hash)
	u := &models.User{
		Email:        demoEmail,
		PasswordHash: &hashed,
		FirstName:    "Demo",
		LastName:     "User",
		IsActive:     true,
	}
	if err := store.Users().Insert(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
