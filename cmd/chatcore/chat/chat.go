// Package chatcmder provides the chat command for interactive LLM chat
// through the chatcore proxy.
package chatcmder

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/NICxKMS/chatcore/pkg/cliui"
	"github.com/NICxKMS/chatcore/pkg/config"
	"github.com/NICxKMS/chatcore/pkg/dotdir"
	"github.com/NICxKMS/chatcore/pkg/logger"
	"github.com/NICxKMS/chatcore/pkg/stream"
)

var (
	userPrompt      = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	assistantPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("assistant> ")
)

type chatCommander struct {
	proxyTarget string
	model       string
	modelSet    bool
	provider    string
	debug       bool

	logger *slog.Logger
}

// chatRequest is the OpenAI-compatible request format. The chat command
// acts as a transparent client, sending requests through the chatcore
// proxy which records stream telemetry on the side.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const chatLongDesc string = `Start an interactive chat session through the chatcore proxy.

Messages are sent in the OpenAI-compatible chat completion format; the
proxy relays the stream back unchanged while recording telemetry.

If a saved session exists, the conversation resumes from it. Each
completed turn updates the saved session.

Commands inside the chat:
  /exit    Quit (Ctrl+D also works)
  /clear   Clear the saved session and start fresh
  /md      Re-render the last assistant reply as markdown

Examples:
  chatcore chat --model gpt-4o-mini
  chatcore chat --model claude-sonnet-4-5 --proxy-target http://localhost:8080`

const chatShortDesc string = "Interactive LLM chat through the chatcore proxy"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if !cmd.Flags().Changed("proxy-target") {
				cmder.proxyTarget = cfg.Client.ProxyTarget
			}
			if !cmd.Flags().Changed("provider") {
				cmder.provider = cfg.Proxy.Provider
			}
			cmder.modelSet = cmd.Flags().Changed("model")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().StringVarP(&cmder.proxyTarget, "proxy-target", "p", defaults.Client.ProxyTarget, "chatcore proxy URL")
	cmd.Flags().StringVarP(&cmder.model, "model", "m", "gpt-4o-mini", "Model name")
	cmd.Flags().StringVar(&cmder.provider, "provider", defaults.Proxy.Provider, "Provider recorded in the saved session")

	return cmd
}

func (c *chatCommander) run() error {
	c.logger = logger.New(logger.WithDebug(c.debug))

	dotdirManager := dotdir.NewManager()
	session, err := dotdirManager.LoadSessionState("")
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}

	var messages []chatMessage
	fmt.Println()
	if session != nil && len(session.Messages) > 0 {
		if !c.modelSet && session.Model != "" {
			c.model = session.Model
		}
		fmt.Printf("  %s Resuming session %s\n",
			cliui.SuccessMark,
			cliui.DimStyle.Render(fmt.Sprintf("(%d messages)", len(session.Messages))),
		)
		for _, msg := range session.Messages {
			messages = append(messages, chatMessage{
				Role:    msg.Role,
				Content: msg.Content,
			})
		}
	} else {
		fmt.Printf("  %s New conversation\n", cliui.DimStyle.Render("●"))
	}

	fmt.Printf("  %s %s\n\n",
		cliui.KeyStyle.Render("Model:"),
		cliui.NameStyle.Render(c.model),
	)
	fmt.Printf("  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /exit or Ctrl+D to quit."))

	scanner := bufio.NewScanner(os.Stdin)
	lastReply := ""

	for {
		fmt.Print(userPrompt)
		if !scanner.Scan() {
			// EOF or error
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		switch input {
		case "/exit":
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("reading input: %w", err)
			}
			fmt.Println()
			return nil
		case "/clear":
			if err := dotdirManager.ClearSession(""); err != nil {
				fmt.Fprintf(os.Stderr, "  %s %v\n", cliui.FailMark, err)
				continue
			}
			messages = nil
			lastReply = ""
			fmt.Printf("  %s session cleared\n\n", cliui.SuccessMark)
			continue
		case "/md":
			if lastReply == "" {
				fmt.Printf("  %s nothing to render yet\n\n", cliui.DimStyle.Render("●"))
				continue
			}
			rendered, err := cliui.RenderMarkdown(lastReply)
			if err != nil {
				fmt.Fprintf(os.Stderr, "  %s %v\n", cliui.FailMark, err)
				continue
			}
			fmt.Println(rendered)
			continue
		}

		messages = append(messages, chatMessage{
			Role:    "user",
			Content: input,
		})

		assistantContent, err := c.sendAndStream(messages)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  %s %v\n", cliui.FailMark, err)
			// Remove the failed user message so we can retry
			messages = messages[:len(messages)-1]
			continue
		}

		messages = append(messages, chatMessage{
			Role:    "assistant",
			Content: assistantContent,
		})
		lastReply = assistantContent

		if err := c.saveSession(dotdirManager, messages); err != nil {
			c.logger.Warn("saving session failed", "error", err)
		}

		fmt.Println()
		fmt.Println()
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Println()
	return nil
}

func (c *chatCommander) saveSession(manager *dotdir.Manager, messages []chatMessage) error {
	state := &dotdir.SessionState{
		Provider: c.provider,
		Model:    c.model,
	}
	for _, msg := range messages {
		state.Messages = append(state.Messages, dotdir.SessionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	return manager.SaveSession(state, "")
}

// sendAndStream sends a chat request through the proxy and prints the
// streamed reply as it arrives. Returns the full assistant response text.
func (c *chatCommander) sendAndStream(messages []chatMessage) (string, error) {
	reqBody := chatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   true,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	c.logger.Debug("sending chat request",
		"proxy_target", c.proxyTarget,
		"model", c.model,
		"message_count", len(messages),
	)

	url := c.proxyTarget + "/v1/chat/completions"
	httpReq, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	client := &http.Client{
		// LLM responses can be slow
		Timeout: 5 * time.Minute,
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("sending request to proxy: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("proxy returned status %d: %s", resp.StatusCode, string(respBody))
	}

	fmt.Print(assistantPrompt)

	decoder := stream.NewDecoder(stream.WithCarryover(true))

	var fullContent strings.Builder
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for events := range decoder.Events() {
			for _, event := range events {
				if event.Kind != stream.KindContent {
					continue
				}
				fmt.Print(event.Content)
				fullContent.WriteString(event.Content)
			}
		}
	}()

	buf := make([]byte, 32*1024)
	var readErr error
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if decodeErr := decoder.Decode(context.Background(), string(buf[:n])); decodeErr != nil {
				readErr = decodeErr
				break
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			readErr = fmt.Errorf("reading stream: %w", err)
			break
		}
	}

	decoder.Close()
	wg.Wait()

	return fullContent.String(), readErr
}
