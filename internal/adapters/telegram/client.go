// Package telegram adapts the MTProto client to the narrow Messenger port
// the farm engine consumes.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"github.com/rs/zerolog"

	"github.com/okunev/nutfarm/internal/domain"
	"github.com/okunev/nutfarm/internal/ports"
)

const groupAbout = "Temporary farming group"

// Factory opens one MTProto client per account session file.
type Factory struct {
	appID   int
	appHash string
	log     zerolog.Logger
}

var _ ports.MessengerFactory = (*Factory)(nil)

func NewFactory(appID int, appHash string, log zerolog.Logger) (*Factory, error) {
	if appID == 0 || strings.TrimSpace(appHash) == "" {
		return nil, domain.ErrMissingCredentials
	}

	return &Factory{appID: appID, appHash: appHash, log: log}, nil
}

func (f *Factory) Messenger(account domain.Account) (ports.Messenger, error) {
	if strings.TrimSpace(account.SessionPath) == "" {
		return nil, fmt.Errorf("account %s has no session path", account.ID)
	}

	return &Client{
		client:  f.newClient(account.SessionPath),
		account: account,
		log:     f.log.With().Str("account", string(account.ID)).Logger(),
	}, nil
}

func (f *Factory) newClient(sessionPath string) *telegram.Client {
	return telegram.NewClient(f.appID, f.appHash, telegram.Options{
		SessionStorage: &session.FileStorage{Path: sessionPath},
	})
}

// Client is a connected MTProto session for one account. Not safe for
// concurrent use; the engine serializes all calls within one cycle.
type Client struct {
	client  *telegram.Client
	account domain.Account
	log     zerolog.Logger

	api  *tg.Client
	stop context.CancelFunc
	done chan error
}

var _ ports.Messenger = (*Client)(nil)

// Connect starts the client run loop in the background and verifies the
// stored session is authorized.
func (c *Client) Connect(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	c.stop = cancel
	c.done = make(chan error, 1)

	ready := make(chan struct{})
	go func() {
		c.done <- c.client.Run(runCtx, func(ctx context.Context) error {
			close(ready)
			<-ctx.Done()
			return ctx.Err()
		})
	}()

	select {
	case <-ready:
	case err := <-c.done:
		cancel()
		if err == nil {
			err = errors.New("client stopped before initialization")
		}
		return fmt.Errorf("connect: %w", err)
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	}

	status, err := c.client.Auth().Status(ctx)
	if err != nil {
		cancel()
		return fmt.Errorf("auth status: %w", err)
	}
	if !status.Authorized {
		cancel()
		return fmt.Errorf("session %s is not authorized; run `nutfarm session add`", c.account.ID)
	}

	c.api = c.client.API()
	return nil
}

func (c *Client) Close(ctx context.Context) error {
	if c.stop == nil {
		return nil
	}
	c.stop()

	select {
	case err := <-c.done:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("disconnect: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) ResolvePeer(ctx context.Context, handle string) (ports.Peer, error) {
	resolved, err := c.api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{
		Username: strings.TrimPrefix(handle, "@"),
	})
	if err != nil {
		return ports.Peer{}, fmt.Errorf("resolve %s: %w", handle, err)
	}

	for _, raw := range resolved.Users {
		if user, ok := raw.(*tg.User); ok {
			return ports.Peer{ID: user.ID, AccessHash: user.AccessHash, Username: handle}, nil
		}
	}

	return ports.Peer{}, fmt.Errorf("resolve %s: no user in result", handle)
}

func (c *Client) CreateGroup(ctx context.Context, title string) (ports.Group, error) {
	updates, err := c.api.ChannelsCreateChannel(ctx, &tg.ChannelsCreateChannelRequest{
		Title:     title,
		About:     groupAbout,
		Megagroup: true,
	})
	if err != nil {
		return ports.Group{}, fmt.Errorf("create group: %w", err)
	}

	channel, err := firstChannel(updates)
	if err != nil {
		return ports.Group{}, fmt.Errorf("create group: %w", err)
	}

	return ports.Group{ID: channel.ID, AccessHash: channel.AccessHash, Title: channel.Title}, nil
}

func (c *Client) InviteMember(ctx context.Context, group ports.Group, peer ports.Peer) error {
	_, err := c.api.ChannelsInviteToChannel(ctx, &tg.ChannelsInviteToChannelRequest{
		Channel: inputChannel(group),
		Users: []tg.InputUserClass{
			&tg.InputUser{UserID: peer.ID, AccessHash: peer.AccessHash},
		},
	})
	if err != nil {
		return fmt.Errorf("invite %s: %w", peer.Username, err)
	}
	return nil
}

// PromoteSelf grants the account the posting rights the script needs and
// nothing more: no add-admins, change-info, ban, pin or invite-link rights.
func (c *Client) PromoteSelf(ctx context.Context, group ports.Group) error {
	_, err := c.api.ChannelsEditAdmin(ctx, &tg.ChannelsEditAdminRequest{
		Channel: inputChannel(group),
		UserID:  &tg.InputUserSelf{},
		AdminRights: tg.ChatAdminRights{
			PostMessages:   true,
			DeleteMessages: true,
			InviteUsers:    true,
			EditMessages:   true,
		},
	})
	if err != nil {
		return fmt.Errorf("grant admin rights: %w", err)
	}
	return nil
}

func (c *Client) SendText(ctx context.Context, group ports.Group, text string, asGroup bool) error {
	request := &tg.MessagesSendMessageRequest{
		Peer:     inputPeer(group),
		Message:  text,
		RandomID: rand.Int64(),
	}
	if asGroup {
		request.SetSendAs(inputPeer(group))
	}

	if _, err := c.api.MessagesSendMessage(ctx, request); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (c *Client) RecentMessages(ctx context.Context, group ports.Group, limit int) ([]ports.Message, error) {
	history, err := c.api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
		Peer:  inputPeer(group),
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}

	modified, ok := history.AsModified()
	if !ok {
		return nil, errors.New("fetch history: unexpected response")
	}

	raw := modified.GetMessages()
	messages := make([]ports.Message, 0, len(raw))
	for _, entry := range raw {
		message, ok := entry.(*tg.Message)
		if !ok {
			continue
		}

		var sender int64
		if from, ok := message.GetFromID(); ok {
			switch peer := from.(type) {
			case *tg.PeerUser:
				sender = peer.UserID
			case *tg.PeerChannel:
				sender = peer.ChannelID
			}
		}

		_, hasMedia := message.GetMedia()
		messages = append(messages, ports.Message{
			SenderID:      sender,
			Text:          message.Message,
			HasAttachment: hasMedia,
		})
	}

	return messages, nil
}

func (c *Client) DeleteGroup(ctx context.Context, group ports.Group) error {
	if _, err := c.api.ChannelsDeleteChannel(ctx, inputChannel(group)); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return nil
}

func inputChannel(group ports.Group) *tg.InputChannel {
	return &tg.InputChannel{ChannelID: group.ID, AccessHash: group.AccessHash}
}

func inputPeer(group ports.Group) *tg.InputPeerChannel {
	return &tg.InputPeerChannel{ChannelID: group.ID, AccessHash: group.AccessHash}
}

func firstChannel(updates tg.UpdatesClass) (*tg.Channel, error) {
	var chats []tg.ChatClass
	switch u := updates.(type) {
	case *tg.Updates:
		chats = u.Chats
	case *tg.UpdatesCombined:
		chats = u.Chats
	default:
		return nil, fmt.Errorf("unexpected updates type %T", updates)
	}

	for _, chat := range chats {
		if channel, ok := chat.(*tg.Channel); ok {
			return channel, nil
		}
	}

	return nil, errors.New("no channel in updates")
}
