// Command client is the terminal front end: it pairs with strangers through
// the remote service, or runs fully offline against the built-in preview
// simulator when no server is configured.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"ser/app/internal/chatapi"
	"ser/app/internal/config"
	"ser/app/internal/logging"
	"ser/app/internal/metusers"
	"ser/app/internal/poller"
	"ser/app/internal/prefs"
	"ser/app/internal/reconnect"
	"ser/app/internal/session"
	"ser/app/internal/telemetry"
)

func main() {
	_ = godotenv.Load()

	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	log := logging.Init(logCfg)

	cfg, err := config.LoadClient()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid client configuration")
	}

	store := prefs.NewStore(cfg.IdentityFile)

	var backend chatapi.ChatBackend
	var participant chatapi.Participant

	if cfg.ServerURL == "" {
		sim := chatapi.NewPreviewSimulator(store)
		backend = sim
		participant = sim.LocalParticipant()
		fmt.Println("running in preview mode (no server configured)")
	} else {
		token := cfg.Token
		if token == "" {
			token, err = fetchAnonToken(cfg.ServerURL)
			if err != nil {
				log.Fatal().Err(err).Msg("failed to obtain anonymous identity")
			}
		}
		remote := chatapi.NewRemote(cfg.ServerURL, token)
		backend = remote
		participant, err = bootstrapIdentity(cfg.ServerURL, token, store.Load())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to bootstrap identity")
		}
	}

	events := telemetry.LogEmitter{Log: log}
	registry := metusers.NewRegistry(backend, nil)
	controller := session.NewController(backend, registry, events, log)
	controller.SetParticipant(&participant)
	registry.SetConnector(controller)
	manager := reconnect.NewManager(backend, registry, controller, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessionPoll := poller.NewScheduler("session", poller.SessionPollInterval, controller.Poll, log)
	sessionPoll.OnUnavailable = func(err error) {
		fmt.Println("connection lost, retrying...")
	}
	refreshPoll := poller.NewScheduler("refresh", poller.RefreshInterval, func(ctx context.Context) error {
		if err := manager.Refresh(ctx); err != nil {
			return err
		}
		return registry.Refresh(ctx)
	}, log)

	sessionPoll.Start(ctx)
	refreshPoll.Start(ctx)
	defer sessionPoll.Stop()
	defer refreshPoll.Stop()

	repl(ctx, controller, manager, registry, backend)
}

// repl runs the interactive command loop until EOF or quit.
func repl(
	ctx context.Context,
	controller *session.Controller,
	manager *reconnect.Manager,
	registry *metusers.Registry,
	backend chatapi.ChatBackend,
) {
	fmt.Println("commands: start | end | status | met | requests | accept <id> | decline <id> | reconnect <user> | direct <user> | report <reason> [text] | stats | quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		cmdCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		runCommand(cmdCtx, fields, controller, manager, registry, backend)
		cancel()
	}
}

func runCommand(
	ctx context.Context,
	fields []string,
	controller *session.Controller,
	manager *reconnect.Manager,
	registry *metusers.Registry,
	backend chatapi.ChatBackend,
) {
	switch fields[0] {
	case "start":
		if err := controller.Start(ctx); err != nil {
			fmt.Println("error:", err)
			return
		}
		printSnapshot(controller.Snapshot())
	case "end":
		if err := controller.End(ctx); err != nil {
			fmt.Println("error:", err)
			return
		}
		fmt.Println("session ended")
	case "status":
		printSnapshot(controller.Snapshot())
	case "met":
		for _, rec := range registry.List() {
			fmt.Printf("%s  %s (@%s)  last met %s  %ds\n",
				rec.ID, rec.DisplayName, rec.Username,
				rec.LastMet.Format(time.RFC3339), rec.SessionDuration)
		}
	case "requests":
		for _, req := range manager.Pending() {
			fmt.Printf("%s  from %s (@%s)\n", req.ID, req.Requester.DisplayName, req.Requester.Username)
		}
	case "accept", "decline":
		if len(fields) < 2 {
			fmt.Println("usage:", fields[0], "<request_id>")
			return
		}
		if err := manager.Respond(ctx, fields[1], fields[0] == "accept"); err != nil {
			fmt.Println("error:", err)
			return
		}
		fmt.Println("done")
	case "reconnect":
		if len(fields) < 2 {
			fmt.Println("usage: reconnect <user_id>")
			return
		}
		id, err := manager.SubmitRequest(ctx, fields[1])
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		fmt.Println("request sent:", id)
	case "direct":
		if len(fields) < 2 {
			fmt.Println("usage: direct <user_id>")
			return
		}
		if err := registry.StartDirectChat(ctx, fields[1]); err != nil {
			fmt.Println("error:", err)
			return
		}
		printSnapshot(controller.Snapshot())
	case "report":
		if len(fields) < 2 {
			fmt.Println("usage: report <reason> [description]")
			return
		}
		description := strings.Join(fields[2:], " ")
		if err := controller.ReportPartner(ctx, fields[1], description); err != nil {
			fmt.Println("error:", err)
			return
		}
		fmt.Println("report filed")
	case "stats":
		stats, err := backend.Stats(ctx)
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		fmt.Printf("chats: %d  total: %ds  average: %ds\n",
			stats.TotalChats, stats.TotalTime, stats.AverageDuration)
	case "quit", "exit":
		os.Exit(0)
	default:
		fmt.Println("unknown command:", fields[0])
	}
}

func printSnapshot(snap session.Snapshot) {
	switch snap.State {
	case chatapi.StateWaiting:
		fmt.Println("searching for a partner...")
	case chatapi.StateConnected:
		fmt.Printf("connected to %s (@%s)\n", snap.Partner.DisplayName, snap.Partner.Username)
	default:
		fmt.Println("no active session")
	}
}

// fetchAnonToken mints a fresh anonymous identity on the server.
func fetchAnonToken(baseURL string) (string, error) {
	resp, err := http.Get(strings.TrimRight(baseURL, "/") + "/api/auth/anonid")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("anonid: status %d", resp.StatusCode)
	}
	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	return payload.Token, nil
}

// bootstrapIdentity pushes the locally stored profile to the server and reads
// back the resolved participant.
func bootstrapIdentity(baseURL, token string, local prefs.Identity) (chatapi.Participant, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	base := strings.TrimRight(baseURL, "/")

	if local.DisplayName != "" {
		body, _ := json.Marshal(map[string]any{
			"username":     local.Username,
			"display_name": local.DisplayName,
			"avatar_url":   local.AvatarURL,
			"gender":       local.Gender,
		})
		req, err := http.NewRequest(http.MethodPut, base+"/api/auth/profile", strings.NewReader(string(body)))
		if err != nil {
			return chatapi.Participant{}, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := client.Do(req)
		if err != nil {
			return chatapi.Participant{}, err
		}
		resp.Body.Close()
	}

	req, err := http.NewRequest(http.MethodGet, base+"/api/auth/me", nil)
	if err != nil {
		return chatapi.Participant{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := client.Do(req)
	if err != nil {
		return chatapi.Participant{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return chatapi.Participant{}, fmt.Errorf("me: status %d", resp.StatusCode)
	}

	var participant chatapi.Participant
	if err := json.NewDecoder(resp.Body).Decode(&participant); err != nil {
		return chatapi.Participant{}, err
	}
	return participant, nil
}
