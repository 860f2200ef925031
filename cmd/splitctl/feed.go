package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"splitboard/internal/notifications"

	"github.com/gorilla/websocket"
	"github.com/urfave/cli/v2"
)

func newFeedCommand() *cli.Command {
	return &cli.Command{
		Name:  "feed",
		Usage: "tail the live feed of a running server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Value: "localhost:8375", Usage: "API server host"},
			&cli.BoolFlag{Name: "tls", Usage: "connect with wss"},
			&cli.StringFlag{Name: "token", EnvVars: []string{"SPLITBOARD_TOKEN"}, Usage: "bearer token to identify as"},
		},
		Action: func(c *cli.Context) error {
			scheme := "ws"
			if c.Bool("tls") {
				scheme = "wss"
			}
			u := url.URL{Scheme: scheme, Host: c.String("host"), Path: "/api/ws/feed"}

			header := http.Header{}
			if token := c.String("token"); token != "" {
				header.Set("Authorization", "Bearer "+token)
			}

			conn, resp, err := websocket.DefaultDialer.DialContext(c.Context, u.String(), header)
			if err != nil {
				if resp != nil {
					return fmt.Errorf("dial %s: %w (status %d)", u.String(), err, resp.StatusCode)
				}
				return fmt.Errorf("dial %s: %w", u.String(), err)
			}
			defer func() { _ = conn.Close() }()
			log.Printf("connected to %s", u.String())

			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-interrupt
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				_ = conn.Close()
			}()

			for {
				_, data, err := conn.ReadMessage()
				if err != nil {
					if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
						return nil
					}
					return err
				}
				var event notifications.Event
				if err := json.Unmarshal(data, &event); err != nil {
					fmt.Println(string(data))
					continue
				}
				fmt.Printf("%s  %-16s %s\n", event.Timestamp.Format("15:04:05"), event.Type, summarize(event.Payload))
			}
		},
	}
}

func summarize(payload any) string {
	m, ok := payload.(map[string]any)
	if !ok {
		b, _ := json.Marshal(payload)
		return string(b)
	}
	switch {
	case m["score"] != nil:
		return fmt.Sprintf("split #%v scored %v", m["id"], m["score"])
	case m["content"] != nil:
		return fmt.Sprintf("comment #%v on split #%v: %v", m["id"], m["splitId"], m["content"])
	case m["commentId"] != nil:
		return fmt.Sprintf("comment #%v removed from split #%v", m["commentId"], m["splitId"])
	}
	b, _ := json.Marshal(m)
	return string(b)
}
