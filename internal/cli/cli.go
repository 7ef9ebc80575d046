// Package cli implements the vibely terminal client.
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"vibely/internal/chatsync"
	"vibely/internal/client"
	"vibely/internal/config"
	"vibely/internal/eventbus"
	"vibely/internal/models"
	"vibely/pkg/logger"
)

// Config holds the global flags shared by every command.
type Config struct {
	APIURL      string
	SessionFile string
	Timeout     time.Duration
	LogLevel    string
}

// ParseConfig reads the global flags from args on top of the environment
// defaults and returns the remaining command line.
func ParseConfig(fs *flag.FlagSet, env *config.ClientConfig, args []string) (Config, []string, error) {
	cfg := Config{
		APIURL:      env.APIURL,
		SessionFile: env.SessionFile,
		Timeout:     env.Timeout,
		LogLevel:    env.LogLevel,
	}
	fs.StringVar(&cfg.APIURL, "api", cfg.APIURL, "API base URL")
	fs.StringVar(&cfg.SessionFile, "session", cfg.SessionFile, "session file (default: user config dir)")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "HTTP request timeout")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, error)")
	if err := fs.Parse(args); err != nil {
		return Config{}, nil, err
	}
	if cfg.SessionFile == "" {
		path, err := client.DefaultSessionPath()
		if err != nil {
			return Config{}, nil, err
		}
		cfg.SessionFile = path
	}
	return cfg, fs.Args(), nil
}

// App runs one command against the API.
type App struct {
	API *client.Client
	In  io.Reader
	Out io.Writer
	// Connect opens the realtime chat session; tests replace it.
	Connect func(ctx context.Context, api *client.Client, bus *eventbus.Bus) (*chatsync.Session, error)
}

func NewApp(cfg Config, in io.Reader, out io.Writer) *App {
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))
	return &App{
		API:     client.New(cfg.APIURL, client.NewFileStore(cfg.SessionFile), cfg.Timeout),
		In:      in,
		Out:     out,
		Connect: chatsync.Connect,
	}
}

type command struct {
	usage string
	run   func(a *App, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"register":      {"register -name N -username U -email E -password P", (*App).register},
	"login":         {"login -email E -password P", (*App).login},
	"logout":        {"logout", (*App).logout},
	"whoami":        {"whoami", (*App).whoami},
	"search":        {"search QUERY", (*App).search},
	"profile":       {"profile [-name N] [-bio B] [-location L] [-status S] [-interests a,b]", (*App).profile},
	"avatar":        {"avatar FILE", (*App).avatar},
	"events":        {"events", (*App).events},
	"joined":        {"joined", (*App).joined},
	"create-event":  {"create-event -title T -type T -date YYYY-MM-DD -location L [-time HH:MM] [-description D]", (*App).createEvent},
	"join":          {"join EVENT_ID", (*App).join},
	"leave":         {"leave EVENT_ID", (*App).leave},
	"friends":       {"friends", (*App).friends},
	"add-friend":    {"add-friend USER_ID", (*App).addFriend},
	"requests":      {"requests", (*App).requests},
	"accept":        {"accept REQUEST_ID", (*App).accept},
	"decline":       {"decline REQUEST_ID", (*App).decline},
	"notifications": {"notifications", (*App).notifications},
	"chats":         {"chats", (*App).chats},
	"chat":          {"chat FRIEND_ID | -room CHATROOM_ID", (*App).chat},
	"delete-chat":   {"delete-chat CHATROOM_ID", (*App).deleteChat},
	"dismiss":       {"dismiss NOTIFICATION_ID", (*App).dismiss},
}

// Usage writes the command list.
func Usage(w io.Writer) {
	fmt.Fprintln(w, "usage: vibely [global flags] COMMAND [args]")
	fmt.Fprintln(w, "\ncommands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", commands[name].usage)
	}
}

// Run dispatches args[0] to its command.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		Usage(a.Out)
		return errors.New("missing command")
	}
	cmd, ok := commands[args[0]]
	if !ok {
		Usage(a.Out)
		return fmt.Errorf("unknown command %q", args[0])
	}
	return cmd.run(a, ctx, args[1:])
}

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func oneArg(args []string, what string) (string, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", fmt.Errorf("expected %s", what)
	}
	return args[0], nil
}

func (a *App) register(ctx context.Context, args []string) error {
	var req models.RegisterRequest
	fs := newFlags("register")
	fs.StringVar(&req.Name, "name", "", "display name")
	fs.StringVar(&req.Username, "username", "", "username")
	fs.StringVar(&req.Email, "email", "", "email")
	fs.StringVar(&req.Phone, "phone", "", "phone")
	fs.StringVar(&req.Password, "password", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	resp, err := a.API.Register(ctx, &req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Welcome, %s (%s)\n", resp.User.Name, resp.User.ID)
	return nil
}

func (a *App) login(ctx context.Context, args []string) error {
	var email, password string
	fs := newFlags("login")
	fs.StringVar(&email, "email", "", "email")
	fs.StringVar(&password, "password", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	resp, err := a.API.Login(ctx, email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Logged in as %s (%s)\n", resp.User.Username, resp.User.ID)
	return nil
}

func (a *App) logout(ctx context.Context, args []string) error {
	if err := a.API.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(a.Out, "Logged out")
	return nil
}

func (a *App) whoami(ctx context.Context, args []string) error {
	user, err := a.API.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "%s (@%s) %s\n", user.Name, user.Username, user.Status)
	if user.Bio != "" {
		fmt.Fprintln(a.Out, user.Bio)
	}
	if len(user.Interests) > 0 {
		fmt.Fprintf(a.Out, "interests: %s\n", strings.Join(user.Interests, ", "))
	}
	fmt.Fprintf(a.Out, "friends: %d, pending requests: %d\n", len(user.Friends), len(user.FriendRequests))
	return nil
}

func (a *App) search(ctx context.Context, args []string) error {
	query := strings.Join(args, " ")
	users, err := a.API.SearchUsers(ctx, query)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tNAME")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", u.ID, u.Username, u.Name)
	}
	return tw.Flush()
}

func (a *App) profile(ctx context.Context, args []string) error {
	var name, bio, location, status, interests string
	fs := newFlags("profile")
	fs.StringVar(&name, "name", "", "display name")
	fs.StringVar(&bio, "bio", "", "bio")
	fs.StringVar(&location, "location", "", "location")
	fs.StringVar(&status, "status", "", "available, away, busy or offline")
	fs.StringVar(&interests, "interests", "", "comma separated interests")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := &models.UpdateProfileRequest{}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			req.Name = &name
		case "bio":
			req.Bio = &bio
		case "location":
			req.Location = &location
		case "status":
			s := models.UserStatus(status)
			req.Status = &s
		case "interests":
			list := strings.Split(interests, ",")
			req.Interests = &list
		}
	})

	user, err := a.API.UpdateProfile(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Profile updated: %s (%s)\n", user.Name, user.Status)
	return nil
}

func (a *App) avatar(ctx context.Context, args []string) error {
	path, err := oneArg(args, "an image file")
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	user, err := a.API.UploadAvatar(ctx, filepath.Base(path), contentType, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Profile picture: %s\n", user.ProfilePicture)
	return nil
}

func (a *App) printEvents(events []*models.Event) error {
	tw := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTITLE\tTYPE\tLOCATION\tJOINED")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s %s\t%s\t%s\t%s\t%d\n",
			e.ID, e.Date.Format("2006-01-02"), e.Time, e.Title, e.Type, e.Location, len(e.JoinedUsers))
	}
	return tw.Flush()
}

func (a *App) events(ctx context.Context, args []string) error {
	events, err := a.API.ListEvents(ctx)
	if err != nil {
		return err
	}
	return a.printEvents(events)
}

func (a *App) joined(ctx context.Context, args []string) error {
	events, err := a.API.JoinedEvents(ctx)
	if err != nil {
		return err
	}
	return a.printEvents(events)
}

func (a *App) createEvent(ctx context.Context, args []string) error {
	var req models.CreateEventRequest
	fs := newFlags("create-event")
	fs.StringVar(&req.Title, "title", "", "title")
	fs.StringVar(&req.Type, "type", "", "event type")
	fs.StringVar(&req.Date, "date", "", "date (YYYY-MM-DD or RFC3339)")
	fs.StringVar(&req.Time, "time", "", "start time")
	fs.StringVar(&req.Location, "location", "", "location")
	fs.StringVar(&req.Description, "description", "", "description")
	fs.StringVar(&req.Image, "image", "", "image URL")
	if err := fs.Parse(args); err != nil {
		return err
	}

	event, err := a.API.CreateEvent(ctx, &req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Created event %s\n", event.ID)
	return nil
}

func (a *App) join(ctx context.Context, args []string) error {
	id, err := oneArg(args, "an event id")
	if err != nil {
		return err
	}
	feed := client.NewEventFeed(a.API)
	event, err := feed.Join(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Joined %s\n", event.Title)
	return nil
}

func (a *App) leave(ctx context.Context, args []string) error {
	id, err := oneArg(args, "an event id")
	if err != nil {
		return err
	}
	if err := client.NewEventFeed(a.API).Leave(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(a.Out, "Left event")
	return nil
}

func (a *App) friends(ctx context.Context, args []string) error {
	session, err := a.API.Session()
	if err != nil {
		return err
	}
	if !session.LoggedIn() {
		return client.ErrNotLoggedIn
	}
	friends, err := a.API.Friends(ctx, session.UserID)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tNAME")
	for _, f := range friends {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", f.ID, f.Username, f.Name)
	}
	return tw.Flush()
}

func (a *App) addFriend(ctx context.Context, args []string) error {
	id, err := oneArg(args, "a user id")
	if err != nil {
		return err
	}
	if _, err := a.API.SendFriendRequest(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(a.Out, "Friend request sent")
	return nil
}

func (a *App) requests(ctx context.Context, args []string) error {
	requests, err := a.API.FriendRequests(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFROM\tSENT")
	for _, r := range requests {
		from := r.SenderID
		if r.Sender != nil {
			from = r.Sender.Username
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.ID, from, r.CreatedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

func (a *App) accept(ctx context.Context, args []string) error {
	id, err := oneArg(args, "a friend request id")
	if err != nil {
		return err
	}
	if _, err := a.API.AcceptFriendRequest(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(a.Out, "Friend request accepted")
	return nil
}

func (a *App) decline(ctx context.Context, args []string) error {
	id, err := oneArg(args, "a friend request id")
	if err != nil {
		return err
	}
	if _, err := a.API.DeclineFriendRequest(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(a.Out, "Friend request declined")
	return nil
}

func (a *App) notifications(ctx context.Context, args []string) error {
	notifications, err := a.API.Notifications(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\t\tCONTENT")
	for _, n := range notifications {
		marker := ""
		if n.Unread {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", n.ID, n.Type, marker, n.Content)
	}
	return tw.Flush()
}

func (a *App) dismiss(ctx context.Context, args []string) error {
	id, err := oneArg(args, "a notification id")
	if err != nil {
		return err
	}
	if err := a.API.DeleteNotification(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(a.Out, "Notification dismissed")
	return nil
}

func (a *App) chats(ctx context.Context, args []string) error {
	rooms, err := a.API.Chatrooms(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tUNREAD\tLAST MESSAGE")
	for _, r := range rooms {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.ID, r.Name, r.UnreadCount, r.LastMessage)
	}
	return tw.Flush()
}

func (a *App) deleteChat(ctx context.Context, args []string) error {
	id, err := oneArg(args, "a chatroom id")
	if err != nil {
		return err
	}
	if err := a.API.DeleteChatroom(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(a.Out, "Chat deleted")
	return nil
}

// chat opens an interactive session: lines read from In are sent, incoming
// messages are printed as they arrive. It returns at EOF or on "/quit".
func (a *App) chat(ctx context.Context, args []string) error {
	var roomID string
	fs := newFlags("chat")
	fs.StringVar(&roomID, "room", "", "chatroom id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if roomID == "" && fs.NArg() != 1 {
		return errors.New("expected a friend id or -room")
	}

	session, err := a.Connect(ctx, a.API, eventbus.New())
	if err != nil {
		return err
	}
	defer session.Close()

	if roomID != "" {
		err = session.SelectRoom(ctx, roomID)
	} else {
		_, err = session.OpenPrivate(ctx, fs.Arg(0))
	}
	if err != nil {
		return err
	}

	me := ""
	if s, err := a.API.Session(); err == nil {
		me = s.UserID
	}

	printed := make(map[string]bool)
	flush := func() {
		for _, m := range session.Messages() {
			if printed[m.ID] {
				continue
			}
			printed[m.ID] = true
			who := m.Sender.Username
			if m.Sender.ID == me {
				who = "you"
			}
			fmt.Fprintf(a.Out, "[%s] %s: %s\n", m.CreatedAt.Local().Format("15:04"), who, m.Content)
		}
	}
	flush()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(a.In)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-session.Updates():
			flush()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if line == "/quit" {
				return nil
			}
			if _, err := session.Send(ctx, line); err != nil {
				fmt.Fprintf(a.Out, "! %v\n", err)
				continue
			}
			flush()
		}
	}
}
