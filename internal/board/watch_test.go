package board_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	gorillaws "github.com/gorilla/websocket"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/gearguard/internal/board"
	"github.com/frahmantamala/gearguard/internal/request"
	"github.com/frahmantamala/gearguard/internal/schedule"
	"github.com/frahmantamala/gearguard/pkg/logger"
)

// pushServer upgrades one connection and writes each message in turn.
func pushServer(messages ...string) *httptest.Server {
	upgrader := gorillaws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, m := range messages {
			if err := conn.WriteMessage(gorillaws.TextMessage, []byte(m)); err != nil {
				return
			}
		}
		// hold the connection until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

var _ = Describe("Watch", func() {
	var lg *slog.Logger

	BeforeEach(func() {
		lg = logger.Discard()
	})

	It("refetches the board when an invalidation arrives", func() {
		// Given
		persister := &fakePersister{listResult: []request.Request{
			{ID: 21, Subject: "Press oil change", Status: request.StatusInProgress},
		}}
		syncer := board.NewSynchronizer(persister, lg)
		syncer.Replace([]request.Request{{ID: 20, Subject: "stale", Status: request.StatusNew}})

		server := pushServer(
			`{"type":"hello","payload":{}}`,
			`{"type":"views.invalidated","payload":{"versions":{"board":2}}}`,
		)
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)

		// When
		go func() { done <- syncer.Watch(ctx, "ws"+strings.TrimPrefix(server.URL, "http")+"/?token=abc") }()

		// Then
		Eventually(func() []string { return keys(syncer.Snapshot()) }, 2*time.Second).Should(Equal([]string{"21"}))
		cancel()
		Eventually(done, 2*time.Second).Should(Receive(BeNil()))
	})

	It("fails when the server cannot be reached", func() {
		syncer := board.NewSynchronizer(&fakePersister{}, lg)
		err := syncer.Watch(context.Background(), "ws://127.0.0.1:1/ws")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Render", func() {
	It("draws every column with its cards", func() {
		b := schedule.Kanban([]request.Request{
			{ID: 1, Subject: "Spindle noise", Status: request.StatusNew, Equipment: &request.EquipmentRef{Name: "CNC"}},
			{ID: 2, Subject: "Toner", Status: request.StatusRepaired},
			{TempID: "tmp-abcdef123456", Subject: "Pending card", Status: request.StatusNew},
		})

		out := board.Render(b, 160)

		for _, want := range []string{"New (2)", "In Progress (0)", "Repaired (1)", "Scrap (0)", "#1 Spindle", "CNC", "*abcdef12"} {
			Expect(out).To(ContainSubstring(want))
		}
	})

	It("renders nothing for an empty board value", func() {
		Expect(board.Render(schedule.Board{}, 80)).To(BeEmpty())
	})
})
