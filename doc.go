/*
Package teller is a conversational banking assistant built as a deterministic dialogue state machine.

Each message is routed through an ordered rule table to exactly one handler. Multi-step workflows (loan applications, credit limit changes) and pending menu selections live in a per-session state document that is merged on every write, so a workflow can be suspended when the customer changes topic and resumed later with its collected data intact.

# Concept

The Assistant owns the turn loop. Banking data is reached through a tagged-result API (ports.Bank), session documents through a ports.StateStore and the transcript through a ports.HistoryLog. Messages that match no rule go to an optional completion service, which may answer in text or ask for one of the banking tools.

# Key Features

  - One reply and one history turn per message.
  - Typed session state with explicit set/clear patches.
  - Per-session locking, across replicas when a Redis locker is configured.
  - Scripted fallbacks when the completion service is missing or failing.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"
		"time"

		"github.com/aretw0/teller"
		"github.com/aretw0/teller/pkg/adapters/memory"
		"github.com/aretw0/teller/pkg/bank"
	)

	func main() {
		ctx := context.Background()
		repo := memory.NewBankRepository()
		if err := bank.Seed(ctx, repo, time.Now()); err != nil {
			log.Fatal(err)
		}

		a := teller.New(bank.New(repo), memory.NewStore(), memory.NewHistory())
		resp, err := a.ProcessTurn(ctx, bank.DemoUserID, "session-123", "what's my balance?")
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(resp.Response)
	}
*/
package teller
