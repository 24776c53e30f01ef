// Command hash-generator prints password digests in the format stored in a
// user's password_digest attribute, for seeding accounts by hand.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/kumar-mithlesh/headless-api/internal/resources"
	"github.com/kumar-mithlesh/headless-api/internal/service/auth"
)

func main() {
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost factor")
	flag.Parse()

	hasher := auth.NewBcryptVerifierWithCost(*cost)
	passwords := flag.Args()
	if len(passwords) == 0 {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			passwords = append(passwords, scanner.Text())
		}
	}

	failed := false
	for _, password := range passwords {
		digest, err := hashPassword(hasher, password)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			failed = true
			continue
		}
		fmt.Println(digest)
	}
	if failed {
		os.Exit(1)
	}
}

// hashPassword applies the same length bounds as the users resource.
func hashPassword(hasher auth.PasswordHasher, password string) (string, error) {
	if len(password) < resources.MinPasswordLength || len(password) > resources.MaxPasswordLength {
		return "", fmt.Errorf("password must be %d to %d characters", resources.MinPasswordLength, resources.MaxPasswordLength)
	}
	return hasher.Hash(password)
}
