package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/uhyunpark/homebroker/pkg/api"
	"github.com/uhyunpark/homebroker/pkg/app/core"
	"github.com/uhyunpark/homebroker/pkg/app/core/orderbook"
)

func main() {
	addr := flag.String("addr", "http://localhost:8001", "API base URL")
	user := flag.String("user", "", "user_id cookie; a new one is issued when empty")
	side := flag.String("side", "buy", "buy or sell")
	kind := flag.String("type", "limit", "limit or market")
	qty := flag.String("qty", "1", "quantity")
	price := flag.String("price", "", "limit price")
	dryRun := flag.Bool("dry-run", false, "print the request without sending it")
	flag.Parse()

	// Step 1: Validate locally with the engine's own rules
	req, err := buildRequest(*side, *kind, *qty, *price)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	body, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		fmt.Printf("Error marshaling JSON: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Order Request (JSON):")
	fmt.Println(string(body))
	fmt.Println()

	if *dryRun {
		fmt.Printf("To submit: POST %s/api/orders\n", *addr)
		return
	}

	// Step 2: Submit
	httpReq, err := http.NewRequest(http.MethodPost, *addr+"/api/orders", bytes.NewReader(body))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if *user != "" {
		httpReq.AddCookie(&http.Cookie{Name: "user_id", Value: *user})
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(httpReq)
	if err != nil {
		fmt.Printf("Error submitting: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	out, _ := io.ReadAll(resp.Body)
	fmt.Printf("Status: %s\n", resp.Status)
	for _, c := range resp.Cookies() {
		if c.Name == "user_id" {
			fmt.Printf("Issued user_id: %s\n", c.Value)
		}
	}
	fmt.Println(string(out))

	if resp.StatusCode >= 300 {
		os.Exit(1)
	}
}

func buildRequest(sideStr, kindStr, qty, price string) (api.SubmitOrderRequest, error) {
	side, err := orderbook.ParseSide(sideStr)
	if err != nil {
		return api.SubmitOrderRequest{}, err
	}
	kind, err := orderbook.ParseKind(kindStr)
	if err != nil {
		return api.SubmitOrderRequest{}, err
	}

	var r core.OrderRequest
	if kind == core.Limit {
		r, err = core.LimitRequest("cli", side, qty, price)
	} else {
		r, err = core.MarketRequest("cli", side, qty)
	}
	if err != nil {
		return api.SubmitOrderRequest{}, err
	}
	if err := r.Validate(); err != nil {
		return api.SubmitOrderRequest{}, err
	}

	out := api.SubmitOrderRequest{
		OrderType: kind.String(),
		Side:      side.String(),
		Quantity:  r.Qty,
	}
	out.Price = r.Price
	return out, nil
}
