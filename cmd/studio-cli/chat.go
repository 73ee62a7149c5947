package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fpang/gemini-studio/internal/chat"
	"github.com/fpang/gemini-studio/internal/cli"
)

// chatLoop runs an interactive conversation until /quit, /exit or end of input.
func chatLoop(ctx context.Context, conv *chat.Conversation, p *cli.Prompter, out io.Writer) error {
	for _, m := range conv.Messages() {
		fmt.Fprintf(out, "gemini> %s\n", m.Text)
	}

	for {
		line, ok := p.Line("you> ")
		if !ok {
			fmt.Fprintln(out)
			return nil
		}
		switch strings.TrimSpace(line) {
		case "/quit", "/exit":
			return nil
		}

		reply, err := conv.Send(ctx, line)
		if errors.Is(err, chat.ErrEmptyMessage) {
			continue
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "gemini> %s\n", reply.Text)

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
