package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"storefront-be/internal/client"
	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

const usage = `usage: storefront-cli [-api URL] [-session DIR] <command> [args]

commands:
  products [keyword] [page]   list the catalog
  top                         best rated products
  product <id>                product details
  login <email> <password>    sign in and remember the session
  profile                     the signed-in user
  myorders                    orders of the signed-in user
  cart                        show the saved cart
  cart-add <id> <qty>         put a product in the cart
  logout                      forget the session
`

var errUsage = errors.New("invalid arguments")

func main() {
	api := flag.String("api", getenv("STOREFRONT_API_URL", "http://localhost:5000"), "storefront API base URL")
	dir := flag.String("session", getenv("STOREFRONT_SESSION_DIR", defaultSessionDir()), "directory holding the session file")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	logger.Init(getenv("APP_ENV", "development"))
	defer logger.Sync()

	if err := os.MkdirAll(*dir, 0o700); err != nil {
		logger.L().Fatal("cannot create session directory", zap.String("dir", *dir), zap.Error(err))
	}
	session := client.NewSession(client.NewFileStorage(filepath.Join(*dir, "session.json")))

	store, err := client.NewStore(session)
	if err != nil {
		logger.L().Fatal("cannot restore session", zap.Error(err))
	}
	actions := client.NewActions(client.NewAPI(*api, &http.Client{Timeout: 15 * time.Second}), store, session)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, flag.Args(), actions, store, os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			flag.Usage()
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "error:", client.ErrorMessage(err))
		os.Exit(1)
	}
}

// run executes one command and prints what the store holds afterwards.
func run(ctx context.Context, args []string, actions *client.Actions, store *client.Store, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	switch cmd, rest := args[0], args[1:]; cmd {
	case "products":
		keyword, page := "", 1
		if len(rest) > 0 {
			keyword = rest[0]
		}
		if len(rest) > 1 {
			n, err := strconv.Atoi(rest[1])
			if err != nil {
				return errUsage
			}
			page = n
		}
		if err := actions.ListProducts(ctx, keyword, page); err != nil {
			return err
		}
		res := store.State().ProductList.Data
		for _, p := range res.Products {
			fmt.Fprintf(out, "%s\t%s\t%.2f\t%.1f (%d)\n", p.ID, p.Name, p.Price, p.Rating, p.NumReviews)
		}
		fmt.Fprintf(out, "page %d of %d\n", res.Page, res.Pages)

	case "top":
		if err := actions.TopProducts(ctx); err != nil {
			return err
		}
		for _, p := range store.State().ProductTop.Data {
			fmt.Fprintf(out, "%s\t%s\t%.1f\n", p.ID, p.Name, p.Rating)
		}

	case "product":
		if len(rest) != 1 {
			return errUsage
		}
		if err := actions.ProductDetails(ctx, rest[0]); err != nil {
			return err
		}
		p := store.State().ProductDetails.Data
		fmt.Fprintf(out, "%s\n%s by %s, %.2f, %d in stock\n", p.Name, p.Category, p.Brand, p.Price, p.CountInStock)
		for _, r := range p.Reviews {
			fmt.Fprintf(out, "  %d/5 %s: %s\n", r.Rating, r.Name, r.Comment)
		}

	case "login":
		if len(rest) != 2 {
			return errUsage
		}
		if err := actions.Login(ctx, rest[0], rest[1]); err != nil {
			return err
		}
		fmt.Fprintf(out, "signed in as %s\n", store.State().UserLogin.Data.Name)

	case "profile":
		if err := actions.UserDetails(ctx, "profile"); err != nil {
			return err
		}
		u := store.State().UserDetails.Data
		fmt.Fprintf(out, "%s <%s> admin=%t\n", u.Name, u.Email, u.IsAdmin)

	case "myorders":
		if err := actions.MyOrders(ctx); err != nil {
			return err
		}
		for _, o := range store.State().OrderListMy.Data {
			fmt.Fprintf(out, "%s\t%.2f\tpaid=%t\tdelivered=%t\n", o.ID, o.TotalPrice, o.IsPaid, o.IsDelivered)
		}

	case "cart":
		cart := store.State().Cart
		for _, it := range cart.Items {
			fmt.Fprintf(out, "%s\t%s\tx%d\t%.2f\n", it.Product, it.Name, it.Qty, it.Price)
		}
		fmt.Fprintf(out, "subtotal %.2f\n", cart.Subtotal())

	case "cart-add":
		if len(rest) != 2 {
			return errUsage
		}
		qty, err := strconv.Atoi(rest[1])
		if err != nil || qty < 1 {
			return errUsage
		}
		if err := actions.AddToCart(ctx, rest[0], qty); err != nil {
			return err
		}
		fmt.Fprintf(out, "%d item(s) in cart\n", len(store.State().Cart.Items))

	case "logout":
		actions.Logout()
		fmt.Fprintln(out, "signed out")

	default:
		return errUsage
	}
	return nil
}

func defaultSessionDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "storefront")
	}
	return ".storefront"
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
