// ABOUTME: Non-interactive yopuedo-chat subcommands: login, logout, whoami, friends, history, send
// ABOUTME: They drive the same backend client and session manager as the TUI

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/yopuedo360/yopuedo-chat/internal/chat"
	"github.com/yopuedo360/yopuedo-chat/internal/identity"
	"github.com/yopuedo360/yopuedo-chat/internal/session"
	"github.com/yopuedo360/yopuedo-chat/internal/textfmt"
)

func runLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	username := fs.String("username", "", "login name")
	password := fs.String("password", "", "password (prompted when omitted)")
	a, err := newApp(fs, args)
	if err != nil {
		return err
	}
	defer a.Close()

	reader := bufio.NewReader(os.Stdin)
	if *username == "" {
		*username = prompt(reader, "Username")
	}
	if *password == "" {
		*password = prompt(reader, "Password")
	}
	if *username == "" || *password == "" {
		return fmt.Errorf("username and password are required")
	}

	if err := identity.Login(ctx, a.anon, a.creds, *username, *password); err != nil {
		return err
	}
	a.tokens.Reset()

	profile, err := a.provider.Resolve(ctx)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	green.Printf("  ✓ Logged in as %s\n", profile.Username)
	fmt.Printf("    %s → %s, level %s\n", profile.NativeLanguage, profile.TargetLanguage, profile.Level)
	fmt.Printf("    Credentials: %s\n", a.creds.Path())
	return nil
}

func runLogout(args []string) error {
	a, err := newApp(flag.NewFlagSet("logout", flag.ContinueOnError), args)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.creds.Delete(); err != nil {
		return err
	}
	fmt.Println("Logged out.")
	return nil
}

func runWhoami(ctx context.Context, args []string) error {
	a, err := newApp(flag.NewFlagSet("whoami", flag.ContinueOnError), args)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.resolve(ctx); err != nil {
		return err
	}
	profile, _ := a.provider.Current()

	cyan := color.New(color.FgCyan)
	cyan.Println(profile.Username)
	fmt.Printf("  ID:      %s\n", profile.UserID)
	fmt.Printf("  Native:  %s\n", profile.NativeLanguage)
	fmt.Printf("  Target:  %s\n", profile.TargetLanguage)
	fmt.Printf("  Level:   %s\n", profile.Level)
	fmt.Printf("  Backend: %s\n", a.client.BaseURL())
	return nil
}

func runFriends(ctx context.Context, args []string) error {
	a, err := newApp(flag.NewFlagSet("friends", flag.ContinueOnError), args)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.resolve(ctx); err != nil {
		return err
	}
	profile, _ := a.provider.Current()

	partners, err := a.client.ListPartners(ctx, profile.UserID)
	if err != nil {
		return err
	}
	if len(partners) == 0 {
		fmt.Println("No conversations yet.")
		return nil
	}

	now := time.Now()
	total := 0
	for _, p := range partners {
		p.Normalize()
		total += p.UnreadCount
		printPartner(p, now)
	}
	if total > 0 {
		color.New(color.FgRed, color.Bold).Printf("\n%d unread\n", total)
	}
	return nil
}

func printPartner(p chat.Partner, now time.Time) {
	name := strings.TrimSpace(p.Avatar + " " + p.Name)
	fmt.Printf("%-12s %s", name, color.HiBlackString(p.Role))
	if p.Unread {
		fmt.Print(" " + color.New(color.FgWhite, color.BgRed).Sprintf(" %d ", p.UnreadCount))
	}
	fmt.Printf("  %s\n", color.HiBlackString(textfmt.Activity(now, p.LastActivity)))
	fmt.Printf("    %s\n", textfmt.Preview(p.LastMessage, 60))
}

func runHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	friend := fs.String("friend", "", "partner name or id")
	translations := fs.Bool("translations", true, "show translations")
	a, err := newApp(fs, args)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.resolve(ctx); err != nil {
		return err
	}
	profile, _ := a.provider.Current()

	partners, err := a.client.ListPartners(ctx, profile.UserID)
	if err != nil {
		return err
	}
	partner, err := findPartner(partners, *friend)
	if err != nil {
		return err
	}

	msgs, err := a.client.ListMessages(ctx, profile.UserID, partner.ID)
	if err != nil {
		return err
	}
	color.New(color.FgCyan, color.Bold).Printf("%s · %s\n\n", partner.Name, partner.Role)
	for _, m := range msgs {
		printMessage(m, partner.Name, *translations)
	}
	return nil
}

func runSend(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	friend := fs.String("friend", "", "partner name or id")
	a, err := newApp(fs, args)
	if err != nil {
		return err
	}
	defer a.Close()

	text := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if text == "" {
		return fmt.Errorf("nothing to send")
	}
	if err := a.resolve(ctx); err != nil {
		return err
	}

	mgr, err := a.newSession()
	if err != nil {
		return err
	}
	defer mgr.Close()

	if err := mgr.LoadRoster(ctx); err != nil {
		return err
	}
	partner, err := findPartner(mgr.Roster(), *friend)
	if err != nil {
		return err
	}
	if err := mgr.SelectPartner(ctx, partner.ID); err != nil {
		return err
	}
	if err := mgr.SendMessage(ctx, text); err != nil {
		return err
	}

	snap := mgr.Snapshot()
	n := len(snap.Messages)
	if n < 2 {
		return fmt.Errorf("no reply received")
	}
	for _, m := range snap.Messages[n-2:] {
		printMessage(m, partner.Name, true)
	}
	return nil
}

func printMessage(m chat.Message, partnerName string, translations bool) {
	if m.Sender == chat.SenderUser {
		color.New(color.FgGreen, color.Bold).Print("You")
	} else {
		color.New(color.FgYellow, color.Bold).Print(partnerName)
	}
	if !m.CreatedAt.IsZero() {
		fmt.Print(color.HiBlackString(" " + m.CreatedAt.Local().Format("Jan 2 15:04")))
	}
	fmt.Println()
	fmt.Println("  " + textfmt.PlainText(m.Text))
	if translations && m.Translation != "" {
		fmt.Println("  " + color.New(color.Italic, color.FgHiBlack).Sprint(m.Translation))
	}
	fmt.Println()
}

// findPartner matches query against partner ids first, then names ignoring
// case. An empty query is an error listing the choices.
func findPartner(partners []chat.Partner, query string) (chat.Partner, error) {
	query = strings.TrimSpace(query)
	if query != "" {
		for _, p := range partners {
			if p.ID == query {
				return p, nil
			}
		}
		for _, p := range partners {
			if strings.EqualFold(p.Name, query) {
				return p, nil
			}
		}
	}

	names := make([]string, 0, len(partners))
	for _, p := range partners {
		names = append(names, p.Name)
	}
	if query == "" {
		return chat.Partner{}, fmt.Errorf("--friend is required (one of: %s)", strings.Join(names, ", "))
	}
	return chat.Partner{}, fmt.Errorf("%w: %q (one of: %s)", session.ErrUnknownPartner, query, strings.Join(names, ", "))
}

func prompt(reader *bufio.Reader, question string) string {
	fmt.Printf("%s: ", question)
	input, err := reader.ReadString('\n')
	if err != nil {
		fmt.Println()
	}
	return strings.TrimSpace(input)
}
