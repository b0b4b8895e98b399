// issue_token emite un JWT firmado con JWT_SECRET para operar la API sin un servicio de identidad
// (instalaciones de una sola sede, pruebas manuales, integraciones internas).
//
// Uso: go run ./cmd/issue_token -user <id> -role pharmacist [-ttl 8h]
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jhoicas/medstock-ledger/internal/application/access"
	"github.com/jhoicas/medstock-ledger/pkg/config"
	"github.com/jhoicas/medstock-ledger/pkg/jwt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	if err := run(os.Args[1:], cfg.JWT, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func run(args []string, cfg config.JWTConfig, out io.Writer) error {
	fs := flag.NewFlagSet("issue_token", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	userID := fs.String("user", "", "id del usuario (queda como performed_by)")
	role := fs.String("role", access.RoleViewer, "rol: "+strings.Join(access.Roles, ", "))
	ttl := fs.Duration("ttl", time.Duration(cfg.Expiration)*time.Minute, "vigencia del token")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *userID == "" {
		return fmt.Errorf("-user es obligatorio")
	}
	if !access.KnownRole(*role) {
		return fmt.Errorf("rol desconocido %q (válidos: %s)", *role, strings.Join(access.Roles, ", "))
	}
	if *ttl <= 0 {
		return fmt.Errorf("-ttl debe ser positivo")
	}

	signer, err := jwt.NewSigner(cfg.Secret, cfg.Issuer, *ttl)
	if err != nil {
		return err
	}
	token, err := signer.Sign(*userID, *role)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, token)
	return err
}
