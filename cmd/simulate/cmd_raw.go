package main

import (
	"encoding/json"
	"flag"
	"log"
)

var rawType string
var rawEvent string

func initRawCommand(cmd *flag.FlagSet) {
	cmd.StringVar(&rawType, "type", "custom", "Event type to report in the envelope")
	cmd.StringVar(&rawEvent, "event", "{}", "Event body, as a JSON document")
}

func runRawCommand(channelName, channelUserId string) (string, json.RawMessage) {
	if !json.Valid([]byte(rawEvent)) {
		log.Fatalf("-event must be valid JSON")
	}
	return rawType, json.RawMessage(rawEvent)
}
