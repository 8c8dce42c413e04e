// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package api exposes the protocol's read side over HTTP. All endpoints are
// queries; mutations enter the system through the embedding application, not
// through this surface.
package api

import (
	"net/http"
	"net/http/pprof"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/voltfi/vecore/api/accounts"
	"github.com/voltfi/vecore/api/delegates"
	"github.com/voltfi/vecore/api/epochs"
	"github.com/voltfi/vecore/api/locks"
	"github.com/voltfi/vecore/gov"
	"github.com/voltfi/vecore/log"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins  string
	PprofOn         bool
	EnableReqLogger bool
	EnableMetrics   bool
}

// New returns the assembled api handler.
func New(protocol *gov.Protocol, opts Options) http.Handler {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	accounts.New(protocol).Mount(router, "/accounts")
	epochs.New(protocol).Mount(router, "/epochs")
	delegates.New(protocol).Mount(router, "/delegates")
	locks.New(protocol).Mount(router, "/locks")

	if opts.PprofOn {
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	if opts.EnableReqLogger {
		handler = requestLoggerHandler(handler, logger)
	}
	return handler
}
