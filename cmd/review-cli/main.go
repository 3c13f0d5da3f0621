/*
 * This file is part of VoxDesk (https://github.com/voxdesk/voxdesk).
 * Copyright (C) 2025 VoxDesk Authors
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"
)

const (
	defaultHubURL = "http://localhost:3000"
)

type PendingReview struct {
	ID                int64   `json:"id"`
	Text              string  `json:"text"`
	SuggestedCategory string  `json:"suggested_category"`
	Confidence        float64 `json:"confidence"`
}

func main() {
	var (
		hubURL   = flag.String("hub", defaultHubURL, "URL of the VoxDesk hub")
		action   = flag.String("action", "list", "Action to perform: list, approve, reject, classify, learn")
		id       = flag.Int64("id", 0, "Review ID for approve/reject actions")
		text     = flag.String("text", "", "Command text for classify/learn actions")
		category = flag.String("category", "", "Category for learn, or corrected category for approve")
		format   = flag.String("format", "table", "Output format: table, json")
	)
	flag.Parse()

	client := &ReviewCLI{
		hubURL: *hubURL,
		format: *format,
	}

	var err error
	switch *action {
	case "list":
		err = client.listPending()
	case "approve":
		if *id == 0 {
			fmt.Fprintf(os.Stderr, "Error: review ID required for approve action\n")
			os.Exit(1)
		}
		err = client.resolve(*id, "approve", *category)
	case "reject":
		if *id == 0 {
			fmt.Fprintf(os.Stderr, "Error: review ID required for reject action\n")
			os.Exit(1)
		}
		err = client.resolve(*id, "reject", "")
	case "classify":
		if *text == "" {
			fmt.Fprintf(os.Stderr, "Error: text required for classify action\n")
			os.Exit(1)
		}
		err = client.classify(*text)
	case "learn":
		if *text == "" || *category == "" {
			fmt.Fprintf(os.Stderr, "Error: text and category required for learn action\n")
			os.Exit(1)
		}
		err = client.learn(*text, *category)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown action %s\n", *action)
		fmt.Fprintf(os.Stderr, "Valid actions: list, approve, reject, classify, learn\n")
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type ReviewCLI struct {
	hubURL string
	format string
}

func (c *ReviewCLI) listPending() error {
	resp, err := http.Get(c.hubURL + "/api/review")
	if err != nil {
		return fmt.Errorf("failed to connect to hub: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var result struct {
		Pending []PendingReview `json:"pending"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if c.format == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result.Pending)
	}

	// Table format
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTEXT\tSUGGESTED\tCONFIDENCE")
	fmt.Fprintln(w, "---\t----\t---------\t----------")

	for _, review := range result.Pending {
		fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\n",
			review.ID,
			review.Text,
			review.SuggestedCategory,
			review.Confidence,
		)
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("error flushing output: %w", err)
	}
	fmt.Printf("\nTotal: %d pending\n", len(result.Pending))
	return nil
}

func (c *ReviewCLI) resolve(id int64, action, category string) error {
	payload := map[string]interface{}{
		"id":     id,
		"action": action,
	}
	if category != "" {
		payload["category"] = category
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := http.Post(c.hubURL+"/api/review", "application/json", bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("failed to connect to hub: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("review %d not found", id)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	fmt.Printf("Review %d %sd\n", id, action)
	return nil
}

func (c *ReviewCLI) classify(text string) error {
	data, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := http.Post(c.hubURL+"/api/classify", "application/json", bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("failed to connect to hub: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Category   string         `json:"category"`
		Method     string         `json:"method"`
		Confidence float64        `json:"confidence"`
		Parameters map[string]int `json:"parameters"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if c.format == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	fmt.Printf("Category:   %s\n", result.Category)
	fmt.Printf("Method:     %s\n", result.Method)
	fmt.Printf("Confidence: %.2f\n", result.Confidence)
	if len(result.Parameters) > 0 {
		fmt.Printf("Parameters:\n")
		for slot, value := range result.Parameters {
			fmt.Printf("  %s: %d\n", slot, value)
		}
	}

	return nil
}

func (c *ReviewCLI) learn(text, category string) error {
	data, err := json.Marshal(map[string]string{
		"text":     text,
		"category": category,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := http.Post(c.hubURL+"/api/learn", "application/json", bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("failed to connect to hub: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Added bool `json:"added"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if result.Added {
		fmt.Printf("Learned %q as %s\n", text, category)
	} else {
		fmt.Printf("Already known: %q as %s\n", text, category)
	}
	return nil
}
