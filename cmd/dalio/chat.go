package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/dalio-ai/dalio/backend/internal/client"
	"github.com/dalio-ai/dalio/backend/internal/model/chat"
	"github.com/dalio-ai/dalio/backend/internal/model/market"
	"github.com/dalio-ai/dalio/backend/internal/render"
	chatService "github.com/dalio-ai/dalio/backend/internal/service/chat"
)

var (
	serverURL  string
	token      string
	useWS      bool
	exportPath string
	turnLimit  time.Duration
	ask        string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant",
	Long:  "Opens an interactive chat. Type /sair to quit, /limpar to reset the conversation and /exportar <arquivo> to save the transcript as YAML.",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "API base URL")
	chatCmd.Flags().StringVar(&token, "token", os.Getenv("DALIO_TOKEN"), "Session token sent as a bearer token")
	chatCmd.Flags().BoolVar(&useWS, "ws", false, "Use the WebSocket relay instead of SSE")
	chatCmd.Flags().StringVar(&exportPath, "export", "", "Write the transcript as YAML on exit")
	chatCmd.Flags().DurationVar(&turnLimit, "timeout", 3*time.Minute, "Maximum duration of one turn")
	chatCmd.Flags().StringVar(&ask, "ask", "", "Ask a single question, print the rendered answer and exit")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	api := client.New(serverURL, token)

	var transport client.Transport = client.SSE{Client: api}
	if useWS {
		session, err := api.Dial(ctx)
		if err != nil {
			return err
		}
		defer session.Close()
		transport = session
	}

	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	conv := client.NewConversation(transport)
	out := cmd.OutOrStdout()

	if ask != "" {
		turnCtx, cancel := context.WithTimeout(ctx, turnLimit)
		defer cancel()
		reply, err := conv.Ask(turnCtx, ask, nil)
		if err != nil {
			return err
		}
		view := &liveView{renderer: renderer, out: out}
		view.markdown(render.Message(reply, false))
		return finishChat(conv)
	}

	fmt.Fprintln(out, headerStyle.Render("Dalio AI"))
	fmt.Fprintln(out, statusStyle.Render("/sair para encerrar, /limpar para recomeçar, /exportar <arquivo> para salvar"))

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, userStyle.Render("você › "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			break
		}
		input := strings.TrimSpace(scanner.Text())
		switch {
		case input == "":
			continue
		case input == "/sair" || input == "/exit":
			return finishChat(conv)
		case input == "/limpar":
			conv.Reset()
			fmt.Fprintln(out, statusStyle.Render("conversa reiniciada"))
			continue
		case strings.HasPrefix(input, "/exportar "):
			if err := exportTranscript(conv, strings.TrimSpace(strings.TrimPrefix(input, "/exportar "))); err != nil {
				fmt.Fprintln(out, errorStyle.Render(err.Error()))
			}
			continue
		}

		fmt.Fprintln(out, assistantStyle.Render("dalio ›"))
		turnCtx, cancel := context.WithTimeout(ctx, turnLimit)
		view := &liveView{renderer: renderer, out: out}
		reply, err := conv.Ask(turnCtx, input, view.handle)
		cancel()
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("erro: "+err.Error()))
			continue
		}
		view.finish(reply)
	}
	return finishChat(conv)
}

func finishChat(conv *client.Conversation) error {
	if exportPath == "" {
		return nil
	}
	return exportTranscript(conv, exportPath)
}

func exportTranscript(conv *client.Conversation, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	return client.ExportYAML(f, conv.Messages(), time.Now())
}

// liveView prints deltas as they arrive and each tool block once resolved.
type liveView struct {
	renderer *glamour.TermRenderer
	out      io.Writer
	wrote    bool
}

func (v *liveView) handle(ev chat.Event) error {
	switch ev.Type {
	case chat.EventTextDelta:
		fmt.Fprint(v.out, ev.Delta)
		v.wrote = true
	case chat.EventToolCall:
		if sentence, ok := render.LoadingSentence(market.ToolName(ev.ToolInvocation.ToolName)); ok {
			v.newline()
			fmt.Fprintln(v.out, statusStyle.Render(sentence))
		}
	case chat.EventToolResult:
		if block, ok := render.Invocation(*ev.ToolInvocation); ok {
			v.newline()
			v.markdown(block)
		}
	case chat.EventError:
		v.newline()
		fmt.Fprintln(v.out, errorStyle.Render("erro: "+ev.Error))
	}
	return nil
}

// finish prints the fallback sentence when the model wrote nothing after
// its last tool call.
func (v *liveView) finish(reply chat.Message) {
	v.newline()
	if chatService.FollowUpText(reply) != "" {
		return
	}
	invocations := reply.ToolInvocations
	if len(invocations) == 0 {
		return
	}
	last := invocations[len(invocations)-1]
	if last.State != chat.StateResult || last.Failed() {
		return
	}
	if sentence, ok := render.Fallback(market.ToolName(last.ToolName)); ok {
		fmt.Fprintln(v.out, sentence)
	}
}

func (v *liveView) newline() {
	if v.wrote {
		fmt.Fprintln(v.out)
		v.wrote = false
	}
}

func (v *liveView) markdown(md string) {
	rendered, err := v.renderer.Render(md)
	if err != nil {
		fmt.Fprintln(v.out, md)
		return
	}
	fmt.Fprint(v.out, rendered)
}
