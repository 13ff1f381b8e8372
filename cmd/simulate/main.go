package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/codingconcepts/env"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/golden-vcr/ttvinfo/internal/signature"
)

type Config struct {
	WebhookSecret string `env:"TTV_SECRET" required:"true"`
	ChannelId     string `env:"TTV_CHANNEL" required:"true"`
	ListenPort    uint16 `env:"LISTEN_PORT" default:"5010"`
}

// MessagePayload is the envelope in which each simulated event is sent
type MessagePayload struct {
	ID     string          `json:"id"`
	Type   string          `json:"type"`
	SentAt time.Time       `json:"sent_at"`
	Event  json.RawMessage `json:"event"`
}

type Command struct {
	name     string
	initFunc func(cmd *flag.FlagSet)
	runFunc  func(channelName, channelUserId string) (string, json.RawMessage)
}

var commands = []Command{
	{"update", initUpdateCommand, runUpdateCommand},
	{"raw", initRawCommand, runRawCommand},
}

var channelName string

func main() {
	// Parse config from environment variables
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Fatalf("error loading .env file: %v", err)
	}
	config := Config{}
	if err := env.Set(&config); err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	// We only want to simulate events locally
	url := fmt.Sprintf("http://localhost:%d/ttv/webhook", config.ListenPort)

	// Parse the subcommand that we want to run, or print usage if no match
	var command *Command
	commandName := ""
	if len(os.Args) > 1 {
		commandName = os.Args[1]
	}
	for i := range commands {
		if commands[i].name == commandName {
			command = &commands[i]
			break
		}
	}
	if command == nil {
		commandNames := make([]string, 0, len(commands))
		for i := range commands {
			commandNames = append(commandNames, commands[i].name)
		}
		log.Fatalf("Usage: simulate [%s]", strings.Join(commandNames, "|"))
	}

	// Initialize command-line flags for the chosen subcommand
	flagSet := flag.NewFlagSet(command.name, flag.ExitOnError)
	flagSet.StringVar(&channelName, "channel-name", "GoldenVCR", "Twitch Display Name of the broadcaster")
	badSignature := flagSet.Bool("bad-signature", false, "Sign the request with the wrong secret, to exercise rejection")
	command.initFunc(flagSet)
	if err := flagSet.Parse(os.Args[2:]); err != nil {
		log.Fatalf("Parse error: %v", err)
	}

	// Run the subcommand-specific function to build an event payload, then wrap it in
	// an envelope and serialize it to JSON
	eventType, event := command.runFunc(channelName, config.ChannelId)
	payload := MessagePayload{
		ID:     uuid.NewString(),
		Type:   eventType,
		SentAt: time.Now(),
		Event:  event,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Fatalf("failed to encode message payload: %v", err)
	}

	// Prepare the HTTP request that will carry that message in its body
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		log.Fatalf("error initializing HTTP request: %v", err)
	}
	req.Header.Set("content-type", "application/json")

	// Sign the exact bytes we're sending, so that signature.Verify accepts them
	secret := config.WebhookSecret
	if *badSignature {
		secret = uuid.NewString()
	}
	req.Header.Set(signature.Header, signature.ComputeSignature(body, secret))

	// Print the details of the request to stdout
	fmt.Printf("%s %s\n", req.Method, req.URL)
	for k, values := range req.Header {
		for _, v := range values {
			fmt.Printf("> %s: %s\n", k, v)
		}
	}
	pretty, err := json.MarshalIndent(payload, "", "    ")
	if err != nil {
		log.Fatalf("failed to pretty-print JSON payload: %v", err)
	}
	fmt.Printf("\n%s\n\n", pretty)

	// Send the request and verify that we get the expected response
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("error sending HTTP request: %v", err)
	}
	defer res.Body.Close()
	wantStatus := http.StatusOK
	if *badSignature {
		wantStatus = http.StatusUnauthorized
	}
	if res.StatusCode != wantStatus {
		log.Fatalf("got response %d; expected %d", res.StatusCode, wantStatus)
	}
	fmt.Printf("< %d\n", res.StatusCode)
}
