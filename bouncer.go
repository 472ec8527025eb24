package main

import (
	"github.com/cpacia/bouncer/cmd"
	"github.com/jessevdk/go-flags"
	"log"
	"os"
)

func main() {
	parser := flags.NewParser(nil, flags.Default)

	_, err := parser.AddCommand("start",
		"start the bouncer",
		"The start command watches the configured accounts and forwards every transfer they receive",
		&cmd.Start{})
	if err != nil {
		log.Fatal(err)
	}
	_, err = parser.AddCommand("init",
		"initialize a data directory",
		"The init command creates and initializes a new data directory, database and default config file.",
		&cmd.Init{})
	if err != nil {
		log.Fatal(err)
	}
	_, err = parser.AddCommand("balance",
		"log account balances",
		"The balance command logs the balance and pending amount of the given accounts, "+
			"or of the configured accounts if none are given.",
		&cmd.Balance{})
	if err != nil {
		log.Fatal(err)
	}
	_, err = parser.AddCommand("send",
		"send a single transfer",
		"The send command creates one send block from the source account to the configured destination.",
		&cmd.Send{})
	if err != nil {
		log.Fatal(err)
	}
	_, err = parser.AddCommand("devnet",
		"start a local dev net",
		"The devnet command spins up an in-process mock wallet node with a funded wallet and "+
			"runs the bouncer against it. Pending transfers are generated at a fixed interval.",
		&cmd.DevNet{})
	if err != nil {
		log.Fatal(err)
	}

	if _, err := parser.Parse(); err != nil {
		os.Exit(1)
	}
}
