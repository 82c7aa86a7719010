package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/taskdeps/internal/events"
	"github.com/alfredjeanlab/taskdeps/internal/model"
	"github.com/alfredjeanlab/taskdeps/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch [task-id]",
	Short: "Stream task events as they happen",
	Long: `Watch prints task events live. It subscribes to NATS when a NATS URL is
known (--nats, TASKDEPS_NATS_URL or the active remote), and otherwise follows
the server's SSE stream at /v1/events/stream.`,
	GroupID:           "views",
	Args:              cobra.MaximumNArgs(1),
	PersistentPreRunE: skipClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		natsURL, _ := cmd.Flags().GetString("nats")
		topics, _ := cmd.Flags().GetStringSlice("topics")

		var taskID string
		if len(args) == 1 {
			taskID = args[0]
		}
		if natsURL == "" {
			natsURL = os.Getenv("TASKDEPS_NATS_URL")
		}
		if r, ok := activeRemote(); natsURL == "" && ok {
			natsURL = r.NATSURL
		}

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		out := cmd.OutOrStdout()
		handle := func(topic string, data []byte) {
			if !matchesTask(data, taskID) {
				return
			}
			if jsonOutput {
				fmt.Fprintf(out, `{"topic":%q,"data":%s}`+"\n", topic, data)
				return
			}
			fmt.Fprintln(out, formatEvent(time.Now(), topic, data))
		}

		if natsURL != "" {
			return watchNATS(ctx, natsURL, topics, handle)
		}
		return watchSSE(ctx, httpURL, topics, handle)
	},
}

func watchNATS(ctx context.Context, natsURL string, topics []string, handle func(string, []byte)) error {
	sub, err := events.NewNATSSubscriber(natsURL,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("nats: disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Printf("nats: reconnected")
		}),
	)
	if err != nil {
		return fmt.Errorf("connecting to NATS: %w", err)
	}
	defer sub.Close()

	if len(topics) == 0 {
		topics = []string{events.TopicAll}
	}
	merged := make(chan events.Message, 64)
	for _, topic := range topics {
		ch, cancel, err := sub.Subscribe(topic)
		if err != nil {
			return fmt.Errorf("subscribing to %s: %w", topic, err)
		}
		defer cancel()
		go func() {
			for m := range ch {
				select {
				case merged <- m:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case m := <-merged:
			handle(m.Topic, m.Data)
		}
	}
}

func watchSSE(ctx context.Context, baseURL string, topics []string, handle func(string, []byte)) error {
	u := strings.TrimRight(baseURL, "/") + "/v1/events/stream"
	if len(topics) > 0 {
		u += "?" + url.Values{"topics": {strings.Join(topics, ",")}}.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("connecting to %s: %w", u, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("event stream: HTTP %d", resp.StatusCode)
	}

	err = readSSE(resp.Body, func(topic string, data []byte) error {
		handle(topic, data)
		return nil
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// readSSE parses a text/event-stream body and calls fn for each event.
// Comment lines (keepalives) are skipped.
func readSSE(r io.Reader, fn func(topic string, data []byte) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var topic string
	var data []string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if len(data) > 0 {
				if err := fn(topic, []byte(strings.Join(data, "\n"))); err != nil {
					return err
				}
			}
			topic, data = "", nil
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			topic = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	return scanner.Err()
}

// eventFields is the union of the payload fields formatEvent cares about.
type eventFields struct {
	TaskID      string            `json:"task_id"`
	DependsOnID string            `json:"depends_on_id"`
	From        model.Status      `json:"from"`
	To          model.Status      `json:"to"`
	Cause       string            `json:"cause"`
	Trigger     string            `json:"trigger"`
	Task        *model.Task       `json:"task"`
	Dependency  *model.Dependency `json:"dependency"`
}

func (f *eventFields) taskIDs() []string {
	ids := []string{f.TaskID, f.DependsOnID, f.Trigger}
	if f.Task != nil {
		ids = append(ids, f.Task.ID)
	}
	if f.Dependency != nil {
		ids = append(ids, f.Dependency.TaskID, f.Dependency.DependsOnID)
	}
	return ids
}

func matchesTask(data []byte, taskID string) bool {
	if taskID == "" {
		return true
	}
	var f eventFields
	if json.Unmarshal(data, &f) != nil {
		return false
	}
	for _, id := range f.taskIDs() {
		if id == taskID {
			return true
		}
	}
	return false
}

// formatEvent renders one event as a single human-readable line.
func formatEvent(at time.Time, topic string, data []byte) string {
	ts := ui.RenderMuted(at.Format("15:04:05"))
	var f eventFields
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Sprintf("%s %s %s", ts, topic, data)
	}

	var detail string
	switch topic {
	case events.TopicStatusChanged:
		detail = fmt.Sprintf("%s %s -> %s", f.TaskID, ui.RenderStatus(f.From), ui.RenderStatus(f.To))
		if f.Cause == events.CausePropagation && f.Trigger != "" {
			detail += ui.RenderMuted(" (via " + f.Trigger + ")")
		}
	case events.TopicTaskCreated, events.TopicTaskUpdated:
		if f.Task != nil {
			detail = fmt.Sprintf("%s %q [%s]", f.Task.ID, f.Task.Title, ui.RenderStatus(f.Task.Status))
		}
	case events.TopicTaskDeleted:
		detail = f.TaskID
	case events.TopicDependencyAdded:
		if f.Dependency != nil {
			detail = fmt.Sprintf("%s -> %s", f.Dependency.TaskID, f.Dependency.DependsOnID)
		}
	case events.TopicDependencyRemoved:
		detail = fmt.Sprintf("%s -x- %s", f.TaskID, f.DependsOnID)
	}
	if detail == "" {
		detail = string(data)
	}
	return fmt.Sprintf("%s %-26s %s", ts, ui.RenderAccent(topic), detail)
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt)
}

func init() {
	watchCmd.Flags().String("nats", "", "NATS server URL (falls back to SSE when empty)")
	watchCmd.Flags().StringSlice("topics", nil, "topic patterns to follow (default all)")
}
