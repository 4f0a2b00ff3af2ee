// Command adminhash prints one ADMIN_ACCOUNTS entry for the given email. The
// password is read from the first line of stdin.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/Skotchmaster/shopswift/internal/hash"
)

func main() {
	email := flag.String("email", "", "admin account email")
	flag.Parse()

	if *email == "" || strings.ContainsAny(*email, ":,") {
		log.Fatal("usage: adminhash -email ops@example.com < password.txt")
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		log.Fatalf("read password: %v", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		log.Fatal("empty password")
	}

	h, err := hash.HashPassword(password)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}
	fmt.Printf("%s:%s\n", *email, h)
}
