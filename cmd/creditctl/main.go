package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/trustform/assessd/internal/auth"
	"github.com/trustform/assessd/internal/config"
	"github.com/trustform/assessd/internal/database"
	"github.com/trustform/assessd/internal/ledger"
	"github.com/trustform/assessd/internal/model"
)

func fail(err error) {
	fmt.Fprintln(os.Stderr, err.Error())
	os.Exit(1)
}

func main() {
	fs := pflag.NewFlagSet("creditctl", pflag.ExitOnError)
	conf := fs.String("config", "assessd.yml", "name of config file")
	fs.String("db", "assessd.sqlite", "database file or mysql:<dsn>")
	org := fs.StringP("org", "o", "", "organization id")
	ct := fs.StringP("type", "t", string(model.RespondentCredit), "credit type, RC or EC")
	amount := fs.Float64P("amount", "a", 0, "amount to purchase")
	refund := fs.Bool("refund", false, "record a refund instead of a purchase")
	desc := fs.StringP("description", "d", "", "transaction description")
	history := fs.IntP("history", "n", 0, "print last n transactions")
	asYaml := fs.Bool("yaml", false, "print history as yaml")
	reconcile := fs.Bool("reconcile", false, "compare stored balance with the journal")
	issue := fs.String("issue-token", "", "print an identity token for this subject")
	roles := fs.StringSlice("roles", []string{auth.RoleCustomer}, "roles of the issued token")
	ttl := fs.Duration("ttl", 24*time.Hour, "lifetime of the issued token")
	_ = fs.Parse(os.Args[1:])

	cfg := config.NewAppConfig()
	if err := cfg.BindFlags(fs); err != nil {
		fail(err)
	}

	cfg.Load(*conf)

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if *org == "" {
		fail(fmt.Errorf("--org is required"))
	}

	if *issue != "" {
		tok, err := auth.Sign(cfg.AuthSecret(), *issue, *org, *roles, *ttl)
		if err != nil {
			fail(err)
		}

		fmt.Println(tok)

		return
	}

	db, err := database.GetDatabase(cfg.DB(), false)
	if err != nil {
		fail(err)
	}

	dbm := database.New(db)
	if err := dbm.Migrate(); err != nil {
		fail(err)
	}

	l := ledger.New(dbm)
	credit := model.CreditType(strings.ToUpper(*ct))

	if *amount != 0 {
		typ := model.Purchase
		if *refund {
			typ = model.Refund
		}

		if _, err := l.Record(*org, credit, *amount, typ, *desc); err != nil {
			fail(err)
		}
	}

	if *reconcile {
		stored, journal, err := l.Reconcile(*org, credit)
		if err != nil {
			fail(err)
		}

		fmt.Printf("%s\t%s\tstored %.2f\tjournal %.2f\n", *org, credit, stored, journal)

		return
	}

	balance, err := l.Balance(*org, credit)
	if err != nil {
		fail(err)
	}

	fmt.Printf("%s\t%s\t%.2f\n", *org, credit, balance)

	if *history > 0 {
		if err := printHistory(l, *org, credit, *history, *asYaml); err != nil {
			fail(err)
		}
	}
}

func printHistory(l *ledger.Ledger, org string, ct model.CreditType, n int, asYaml bool) error {
	list, err := l.History(org, ct, n)
	if err != nil {
		return err
	}

	if asYaml {
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()

		return enc.Encode(model.DTOList(list))
	}

	for _, t := range list {
		fmt.Printf("%s\t%-12s\t%8.2f\t%s\n", t.CreatedAt.Format(time.DateTime), t.Type, t.Signed(), t.Description)
	}

	return nil
}
