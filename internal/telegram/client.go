// Package telegram is the Telegram Bot API transport.
//
// It long-polls getUpdates, turns messages into text events and callback
// queries into button events, and delivers replies with sendMessage,
// editMessageText and answerCallbackQuery.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"resty.dev/v3"
)

// DefaultAPIURL is the public Bot API endpoint.
const DefaultAPIURL = "https://api.telegram.org"

// errNotModified is the description Telegram returns when an edit would
// leave the message unchanged.
const errNotModified = "message is not modified"

// Client is a minimal Bot API client.
//
// Thread-safety: Client is safe for concurrent use.
type Client struct {
	rc      *resty.Client
	token   string
	timeout time.Duration
}

// NewClient creates a client for the bot identified by token.
// requestTimeout bounds every call; long polls get the poll timeout on top.
func NewClient(apiURL, token string, requestTimeout time.Duration) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	rc := resty.New().
		SetBaseURL(strings.TrimRight(apiURL, "/")+"/bot"+token).
		SetHeader("Content-Type", "application/json")
	return &Client{rc: rc, token: token, timeout: requestTimeout}
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.rc.Close()
}

// GetMe returns the bot's own user; used as a token check at startup.
func (c *Client) GetMe(ctx context.Context) (User, error) {
	return call[User](ctx, c, "getMe", struct{}{}, 0)
}

// GetUpdates long-polls for updates after offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	return call[[]Update](ctx, c, "getUpdates", getUpdatesRequest{
		Offset:         offset,
		Timeout:        int(timeout / time.Second),
		AllowedUpdates: []string{"message", "callback_query"},
	}, timeout)
}

// SendMessage sends an HTML message with an optional inline keyboard.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, kb *InlineKeyboardMarkup) error {
	_, err := call[Message](ctx, c, "sendMessage", sendMessageRequest{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   ParseModeHTML,
		ReplyMarkup: kb,
	}, 0)
	return err
}

// EditMessageText replaces the text and keyboard of a message the bot sent.
// An edit that changes nothing is not an error.
func (c *Client) EditMessageText(ctx context.Context, chatID, messageID int64, text string, kb *InlineKeyboardMarkup) error {
	_, err := call[any](ctx, c, "editMessageText", editMessageTextRequest{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ParseMode:   ParseModeHTML,
		ReplyMarkup: kb,
	}, 0)
	var apiErr *APIError
	if errors.As(err, &apiErr) && strings.Contains(apiErr.Description, errNotModified) {
		return nil
	}
	return err
}

// AnswerCallbackQuery stops the button spinner, optionally with a notice.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID, text string, alert bool) error {
	_, err := call[bool](ctx, c, "answerCallbackQuery", answerCallbackQueryRequest{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       alert,
	}, 0)
	return err
}

func call[T any](ctx context.Context, c *Client, method string, body any, extra time.Duration) (T, error) {
	var out apiResponse[T]
	var zero T

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout+extra)
		defer cancel()
	}

	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		SetError(&out).
		Post("/" + method)
	if err != nil {
		return zero, c.redact(fmt.Errorf("telegram %s: %w", method, err))
	}
	if !out.OK {
		code := out.ErrorCode
		if code == 0 {
			code = resp.StatusCode()
		}
		return zero, &APIError{Method: method, Code: code, Description: out.Description}
	}
	return out.Result, nil
}

// redactedError hides the bot token, which is part of every request URL.
type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

func (c *Client) redact(err error) error {
	if c.token == "" || !strings.Contains(err.Error(), c.token) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), c.token, "<redacted>"), err: err}
}
