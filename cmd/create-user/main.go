// Command create-user provisions a staff account. Visitor records come in
// through the API; staff accounts are created by an operator with database
// access, so there is no self-registration endpoint.
package main

import (
	"flag"
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"

	"github.com/securedesk/visitor-backend/internal/config"
	"github.com/securedesk/visitor-backend/internal/database"
	"github.com/securedesk/visitor-backend/pkg/validator"
)

func main() {
	email := flag.String("email", "", "staff email address (required)")
	password := flag.String("password", "", "initial password (required)")
	fullName := flag.String("name", "", "full name (required)")
	role := flag.String("role", "host", "role: admin, security or host")
	flag.Parse()

	if *email == "" || *password == "" || *fullName == "" {
		flag.Usage()
		log.Fatal("email, password and name are required")
	}

	sanitized, err := validator.NewEmailValidator().Validate(*email)
	if err != nil {
		log.Fatalf("Invalid email: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), cfg.Security.BcryptCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	user, err := database.NewUserRepository(db).CreateUser(sanitized, string(hash), *fullName, *role)
	if err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	fmt.Printf("Created %s account %s (%s)\n", *role, user.Email, user.ID)
}
