package paylink

import (
	"context"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testEmail = PaymentLinkEmail{
	To:           "sarah.williams@example.com",
	SellerName:   "Sarah Williams",
	AuctionTitle: "Estate Liquidation - Franklin, TN",
	AmountDue:    "1245.78",
	ShareUrl:     "https://pay.example.com/?token=abc.def.ghi",
	ExpiresAt:    time.Date(2025, time.March, 28, 9, 30, 0, 0, time.UTC),
}

func TestRenderPaymentLink(t *testing.T) {
	text, html, err := renderPaymentLink(testEmail)
	require.NoError(t, err)

	for _, body := range []string{string(text), string(html)} {
		require.Contains(t, body, "Sarah Williams")
		require.Contains(t, body, "Estate Liquidation - Franklin, TN")
		require.Contains(t, body, "1245.78")
		require.Contains(t, body, "https://pay.example.com/?token=abc.def.ghi")
		require.Contains(t, body, "March 28, 2025")
	}
}

func TestRenderPaymentLinkEscapesHtml(t *testing.T) {
	msg := testEmail
	msg.SellerName = `<script>alert("x")</script>`
	_, html, err := renderPaymentLink(msg)
	require.NoError(t, err)
	require.False(t, strings.Contains(string(html), "<script>"))
}

func TestNewSmtpNotifierConfig(t *testing.T) {
	_, err := NewSmtpNotifier(SmtpConfig{})
	require.ErrorIs(t, err, ErrConfig)

	notifier, err := NewSmtpNotifier(SmtpConfig{Server: "localhost", EmailAddress: "office@example.com"})
	require.NoError(t, err)
	require.Equal(t, 587, notifier.config.Port)
}

func TestSmtpNotifier(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	ctx := context.Background()

	// suppress logging
	testcontainers.Logger = log.New(io.Discard, "", 0)

	smtp, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		Started: true,
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "haravich/fake-smtp-server",
			ExposedPorts: []string{"1025/tcp"},
			WaitingFor:   wait.ForListeningPort("1025/tcp"),
		},
	})
	if err != nil {
		t.Skipf("could not start smtp container: %v", err)
	}
	t.Cleanup(func() {
		err := smtp.Terminate(context.Background())
		if err != nil {
			t.Fatal(err)
		}
	})

	host, err := smtp.Host(ctx)
	require.NoError(t, err)
	port, err := smtp.MappedPort(ctx, "1025/tcp")
	require.NoError(t, err)

	notifier, err := NewSmtpNotifier(SmtpConfig{
		Server:       host,
		Port:         port.Int(),
		EmailAddress: "office@example.com",
		Password:     "default",
	})
	require.NoError(t, err)

	err = notifier.SendPaymentLink(ctx, testEmail)
	require.NoError(t, err)
}
