package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"repopa/internal/domain/entes"
	"repopa/internal/domain/records/director"
	"repopa/internal/domain/records/governingbody"
)

const adminPasswordEnv = "REPOPA_ADMIN_PASSWORD"

var (
	adminEmail string
	adminName  string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create initial data",
}

var seedAdminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Create the first administrator account",
	Long: `Create an administrator unless an account with the email exists.

The password is read from ` + adminPasswordEnv + ` so it never shows up in
the shell history.

Examples:
  REPOPA_ADMIN_PASSWORD=... repopactl seed admin --email admin@repopa.gob.mx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		password := os.Getenv(adminPasswordEnv)
		if password == "" {
			return errors.New(adminPasswordEnv + " is not set")
		}

		s, closeFn, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		user, created, err := s.app.Auth.EnsureAdmin(s.ctx, adminEmail, password, adminName)
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(cmd.OutOrStdout(), "created administrator %s (%s)\n", user.Email, user.ID)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "account %s already exists, left unchanged\n", user.Email)
		}
		return nil
	},
}

// demoEntity is one sample registration with its head and board.
type demoEntity struct {
	name, typ, purpose string
	director, position string
	board              []string
}

var demoEntities = []demoEntity{
	{
		name: "Instituto de Vivienda", typ: "Organismo", purpose: "Vivienda de interés social",
		director: "Ana Pérez Lugo", position: "Directora General",
		board: []string{"Luis Gómez Ruiz", "Marta Ruiz Soto"},
	},
	{
		name: "Fideicomiso Estatal del Agua", typ: "Fideicomiso", purpose: "Infraestructura hidráulica",
		director: "Jorge Salas Medina", position: "Delegado Fiduciario",
		board: []string{"Elena Cruz Vega"},
	},
	{
		name: "Impulsora de Desarrollo Turístico", typ: "EPEM", purpose: "Promoción turística",
		director: "Sofía Ramírez Torres", position: "Directora General",
		board: []string{"Raúl Ibarra León", "Carmen Ochoa Ríos"},
	},
}

var seedDemoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Register a few sample entities",
	Long: `Register sample entities with a director and governing body members
through the regular services, so folios, audit rows and events are
produced exactly as for API calls. Meant for development databases.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, closeFn, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		if s.cfg.IsProduction() {
			return errors.New("refusing to seed demo data in production")
		}

		for _, d := range demoEntities {
			reg, err := s.app.Entes.Register(s.ctx, entes.RegisterRequest{
				Name:    d.name,
				Type:    d.typ,
				Purpose: d.purpose,
			})
			if err != nil {
				return fmt.Errorf("register %s: %w", d.name, err)
			}
			entityID := reg.Ente.ID

			head := director.NewDirector(entityID)
			head.Name = d.director
			head.Position = d.position
			if err := s.app.Records.Directors.Create(s.ctx, head); err != nil {
				return fmt.Errorf("director of %s: %w", d.name, err)
			}

			for _, name := range d.board {
				m := governingbody.NewMember(entityID)
				m.BodyType = "Junta de Gobierno"
				m.MemberName = name
				m.Position = "Vocal"
				if err := s.app.Records.GoverningBodies.Create(s.ctx, m); err != nil {
					return fmt.Errorf("board member of %s: %w", d.name, err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", reg.Folio, d.name)
		}
		return nil
	},
}

func init() {
	seedAdminCmd.Flags().StringVar(&adminEmail, "email", "", "administrator email")
	seedAdminCmd.Flags().StringVar(&adminName, "name", "Administrador", "display name")
	_ = seedAdminCmd.MarkFlagRequired("email")
	seedCmd.AddCommand(seedAdminCmd, seedDemoCmd)
	rootCmd.AddCommand(seedCmd)
}
