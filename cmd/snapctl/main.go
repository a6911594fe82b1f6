package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/chainsnap/chainsnapd/infrastructure/network/rpc/model"
	"github.com/chainsnap/chainsnapd/infrastructure/network/rpcclient"
)

func main() {
	cfg, err := parseConfig(os.Args[1:])
	if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
		fmt.Println(err)
		return
	}
	if err != nil {
		printErrorAndExit(fmt.Sprintf("error parsing command-line arguments: %s", err))
	}

	if cfg.ListCommands {
		fmt.Println(strings.Join(model.RegisteredMethods(), "\n"))
		return
	}

	method := cfg.CommandAndParameters[0]
	request, err := buildRequest(cfg.CommandAndParameters[1:])
	if err != nil {
		printErrorAndExit(fmt.Sprintf("error parsing parameters of %s: %s", method, err))
	}

	client := rpcclient.New(&rpcclient.ConnConfig{
		Host:    cfg.RPCServer,
		User:    cfg.RPCUser,
		Pass:    cfg.RPCPass,
		Timeout: time.Duration(cfg.Timeout) * time.Second,
	})

	var result rawResult
	if request.named != nil {
		err = client.CallNamed(method, request.named, &result)
	} else {
		err = client.Call(method, request.positional, &result)
	}
	if err != nil {
		printErrorAndExit(fmt.Sprintf("error: %s", err))
	}

	output, err := formatResult(result)
	if err != nil {
		printErrorAndExit(fmt.Sprintf("error formatting the response: %s", err))
	}
	if output != "" {
		fmt.Println(output)
	}
}

func printErrorAndExit(message string) {
	fmt.Fprintln(os.Stderr, message)
	os.Exit(1)
}
