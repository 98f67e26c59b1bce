// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LitScout Contributors

//go:build integration

package bridge_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/litscout/litscout/internal/auth"
	"github.com/litscout/litscout/internal/bridge"
	"github.com/litscout/litscout/internal/events"
	"github.com/litscout/litscout/internal/session"
	"github.com/litscout/litscout/internal/storage/redis"
	"github.com/litscout/litscout/internal/transport"
)

// remoteAPI fakes the LitScout backend.
func remoteAPI() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)

		switch r.URL.Path {
		case auth.PathLogin:
			switch body["username_or_email"] {
			case "ghost":
				w.WriteHeader(http.StatusUnauthorized)
			default:
				_, _ = io.WriteString(w, `{"access_token":"acc-1","user_id":7,"username":"alice","refresh_token":"ref-1"}`)
			}
		case auth.PathRegister:
			w.WriteHeader(http.StatusConflict)
		case auth.PathUserDetail:
			if r.Header.Get("Authorization") != "Bearer acc-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = io.WriteString(w, `{"user":{"username":"alice"}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

var _ = Describe("Bridge with Redis-backed sessions", func() {
	var (
		ctx     context.Context
		api     *httptest.Server
		backend *redis.Store
		store   *session.Store
		bus     *events.Bus
		srv     *bridge.Server
		web     *httptest.Server
		stream  *websocket.Conn
	)

	post := func(path, body string) *http.Response {
		resp, err := http.Post(web.URL+path, "application/json", strings.NewReader(body))
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	nextEvent := func() events.Event {
		var ev events.Event
		Expect(stream.SetReadDeadline(time.Now().Add(5 * time.Second))).To(Succeed())
		Expect(stream.ReadJSON(&ev)).To(Succeed())
		return ev
	}

	BeforeEach(func() {
		ctx = context.Background()
		api = remoteAPI()

		var err error
		backend, err = redis.New(ctx, redis.Options{Addr: env.redisAddr, Prefix: "it:" + CurrentSpecReport().LeafNodeText + ":"})
		Expect(err).NotTo(HaveOccurred())
		store, err = session.NewStore(backend)
		Expect(err).NotTo(HaveOccurred())

		client, err := transport.New(api.URL, transport.WithTokenSource(store))
		Expect(err).NotTo(HaveOccurred())

		bus = events.NewBus(events.WithRoutes(events.Routes{events.MainView: "https://localhost:5173/search"}))
		svc, err := auth.NewService(client, store, bus)
		Expect(err).NotTo(HaveOccurred())

		srv, err = bridge.New(bridge.Options{Auth: svc, Sessions: store, Bus: bus, AllowedOrigins: []string{"http://localhost:*"}})
		Expect(err).NotTo(HaveOccurred())
		web = httptest.NewServer(srv.Handler())

		stream, _, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(web.URL, "http")+"/events",
			http.Header{"Origin": []string{"http://localhost:5173"}})
		Expect(err).NotTo(HaveOccurred())
		Eventually(bus.Subscribers).Should(Equal(1))
	})

	AfterEach(func() {
		_ = stream.Close()
		Expect(srv.Stop(ctx)).To(Succeed())
		web.Close()
		bus.Close()
		_ = store.Clear(ctx)
		_ = backend.Close()
		api.Close()
	})

	It("logs in, persists the session and streams the outcome", func() {
		resp := post("/auth/login", `{"username_or_email":"alice","password":"pw"}`)
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		nav := nextEvent()
		Expect(nav.Type).To(Equal(events.TypeNavigate))
		Expect(nav.URL).To(Equal("https://localhost:5173/search"))
		note := nextEvent()
		Expect(note.Notification.Message).To(Equal("Login Successfully"))

		v, err := backend.Get(ctx, session.KeyRefreshToken)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal("ref-1"))

		restored, err := session.NewStore(backend)
		Expect(err).NotTo(HaveOccurred())
		ok, err := restored.Restore(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(restored.AccessToken()).To(Equal("acc-1"))

		user, err := http.Get(web.URL + "/user/userDetail")
		Expect(err).NotTo(HaveOccurred())
		defer user.Body.Close()
		Expect(user.StatusCode).To(Equal(http.StatusOK))
	})

	It("sends an unregistered user to the landing page", func() {
		resp := post("/auth/login", `{"username_or_email":"ghost","password":"pw"}`)
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))

		first, second := nextEvent(), nextEvent()
		kinds := []events.Type{first.Type, second.Type}
		Expect(kinds).To(ConsistOf(events.TypeNavigate, events.TypeNotify))
		Expect(store.Authenticated()).To(BeFalse())
	})

	It("reports a duplicate account without touching the session", func() {
		resp := post("/auth/register", `{"username":"alice","email":"a@x","password":"pw"}`)
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusConflict))

		note := nextEvent()
		Expect(note.Notification.Message).To(Equal("User Already exists"))
		_, err := backend.Get(ctx, session.KeyRegistrationToken)
		Expect(err).To(HaveOccurred())
	})

	It("clears the stored session on logout", func() {
		post("/auth/login", `{"username_or_email":"alice","password":"pw"}`).Body.Close()
		nextEvent()
		nextEvent()

		resp := post("/auth/logout", "")
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusNoContent))

		_, err := backend.Get(ctx, session.KeyAccessToken)
		Expect(err).To(HaveOccurred())
		Expect(store.Authenticated()).To(BeFalse())
	})
})
