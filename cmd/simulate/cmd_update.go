package main

import (
	"encoding/json"
	"flag"
	"strings"

	"github.com/nicklaw5/helix/v2"
)

var updateTitle string
var updateCategoryId string
var updateCategoryName string

func initUpdateCommand(cmd *flag.FlagSet) {
	cmd.StringVar(&updateTitle, "title", "Watching some tapes", "New stream title")
	cmd.StringVar(&updateCategoryId, "category-id", "509658", "Twitch ID of the new stream category")
	cmd.StringVar(&updateCategoryName, "category-name", "Just Chatting", "Name of the new stream category")
}

func runUpdateCommand(channelName, channelUserId string) (string, json.RawMessage) {
	ev, err := json.Marshal(helix.EventSubChannelUpdateEvent{
		BroadcasterUserID:    channelUserId,
		BroadcasterUserLogin: strings.ToLower(channelName),
		BroadcasterUserName:  channelName,
		Title:                updateTitle,
		Language:             "en",
		CategoryID:           updateCategoryId,
		CategoryName:         updateCategoryName,
	})
	if err != nil {
		panic(err)
	}
	return helix.EventSubTypeChannelUpdate, ev
}
