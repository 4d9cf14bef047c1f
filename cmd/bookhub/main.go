// Command bookhub is a small command-line client for the Book Hub API.
//
//	bookhub [-url URL] [-token TOKEN] <command> [flags]
//
// The base URL and token default to BOOKHUB_URL and BOOKHUB_TOKEN.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/PaulBabatuyi/bookhub/internal/client"
	"github.com/PaulBabatuyi/bookhub/internal/service"
)

const usage = `usage: bookhub [-url URL] [-token TOKEN] <command> [flags]

commands:
  signup  -email -password -name
  login   -email -password
  list
  show    <id>
  create  -title -price -type -condition [-author -description -image -owner -contact]
  delete  <id>
  message -text [-by] <id>
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "bookhub:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("bookhub", flag.ContinueOnError)
	baseURL := fs.String("url", envOr("BOOKHUB_URL", "http://localhost:8080"), "API base URL")
	token := fs.String("token", os.Getenv("BOOKHUB_TOKEN"), "bearer token")
	timeout := fs.Duration("timeout", 30*time.Second, "request timeout")
	fs.Usage = func() { fmt.Fprint(fs.Output(), usage) }
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	c := client.New(*baseURL, client.WithToken(*token), client.WithCacheTTL(0))
	cmd, rest := fs.Arg(0), fs.Args()[1:]

	switch cmd {
	case "signup":
		sub := flag.NewFlagSet("signup", flag.ContinueOnError)
		email := sub.String("email", "", "account email")
		password := sub.String("password", "", "account password")
		name := sub.String("name", "", "display name")
		if err := sub.Parse(rest); err != nil {
			return err
		}
		res, err := c.Signup(ctx, *email, *password, *name)
		if err != nil {
			return err
		}
		return printJSON(out, res)

	case "login":
		sub := flag.NewFlagSet("login", flag.ContinueOnError)
		email := sub.String("email", "", "account email")
		password := sub.String("password", "", "account password")
		if err := sub.Parse(rest); err != nil {
			return err
		}
		res, err := c.Login(ctx, *email, *password)
		if err != nil {
			return err
		}
		return printJSON(out, res)

	case "list":
		books, err := c.ListBooks(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTITLE\tTYPE\tPRICE\tCONDITION\tOWNER")
		for _, b := range books {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\t%s\n",
				b.ID.Hex(), b.Title, b.ListingType, b.Price, b.Condition, b.Owner.Name)
		}
		return tw.Flush()

	case "show":
		id, err := oneArg(cmd, rest)
		if err != nil {
			return err
		}
		book, err := c.GetBook(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(out, book)

	case "create":
		sub := flag.NewFlagSet("create", flag.ContinueOnError)
		var in service.CreateListingInput
		sub.StringVar(&in.Title, "title", "", "book title")
		sub.StringVar(&in.Author, "author", "", "book author")
		sub.StringVar(&in.Description, "description", "", "description")
		sub.Float64Var(&in.Price, "price", 0, "price, required for Sell")
		sub.StringVar(&in.ListingType, "type", "", "Sell, Buy or Exchange")
		sub.StringVar(&in.Condition, "condition", "", "Like New, Good or Fair")
		sub.StringVar(&in.Owner, "owner", "", "owner name when the server allows anonymous listings")
		sub.StringVar(&in.Contact, "contact", "", "owner contact when the server allows anonymous listings")
		image := sub.String("image", "", "path to a file holding a base64 image or data URL")
		if err := sub.Parse(rest); err != nil {
			return err
		}
		if *image != "" {
			b, err := os.ReadFile(*image)
			if err != nil {
				return err
			}
			in.Image = strings.TrimSpace(string(b))
		}
		book, err := c.CreateBook(ctx, in)
		if err != nil {
			return err
		}
		return printJSON(out, book)

	case "delete":
		id, err := oneArg(cmd, rest)
		if err != nil {
			return err
		}
		if err := c.DeleteBook(ctx, id); err != nil {
			return err
		}
		fmt.Fprintln(out, "deleted", id)
		return nil

	case "message":
		sub := flag.NewFlagSet("message", flag.ContinueOnError)
		text := sub.String("text", "", "message text")
		by := sub.String("by", "", "sender name when the server allows anonymous messages")
		if err := sub.Parse(rest); err != nil {
			return err
		}
		id, err := oneArg(cmd, sub.Args())
		if err != nil {
			return err
		}
		msg, err := c.SendMessage(ctx, id, *text, *by)
		if err != nil {
			return err
		}
		return printJSON(out, msg)
	}

	fs.Usage()
	return fmt.Errorf("unknown command %q", cmd)
}

func oneArg(cmd string, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%s: expected a listing id", cmd)
	}
	return args[0], nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
