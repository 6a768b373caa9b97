// Command scimgate runs the SCIM→LDAP identity-provisioning connector.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/isometry/scimgate/internal/codec"
	"github.com/isometry/scimgate/internal/config"
	"github.com/isometry/scimgate/internal/directory"
	"github.com/isometry/scimgate/internal/filter"
	"github.com/isometry/scimgate/internal/index"
	"github.com/isometry/scimgate/internal/provisioning"
	"github.com/isometry/scimgate/internal/scim"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		hclog.Default().Error("configuration failed", "error", err)
		os.Exit(1)
	}

	log := hclog.New(&hclog.LoggerOptions{
		Name:  "scimgate",
		Level: hclog.LevelFromString(cfg.LogLevel),
	})

	cdc := codec.New(codec.Config{
		UserClasses:  cfg.LDAP.UserClasses,
		GroupClasses: cfg.LDAP.GroupClasses,
		GroupGID:     cfg.LDAP.GroupGID,
	}, log.Named("codec"))

	idx, err := index.New(cdc, log.Named("index"))
	if err != nil {
		log.Error("index initialization failed", "error", err)
		os.Exit(1)
	}

	gw := directory.NewGateway(directory.Config{
		URL:          cfg.LDAP.URL,
		BindDN:       cfg.LDAP.BindDN,
		BindPassword: cfg.LDAP.BindPassword,
		BaseDN:       cfg.LDAP.BaseDN,
		UserDN:       cfg.LDAP.UserDN,
		GroupDN:      cfg.LDAP.GroupDN,
		UserPrefix:   cfg.LDAP.UserPrefix,
		GroupPrefix:  cfg.LDAP.GroupPrefix,
		UserFilter:   cfg.LDAP.UserFilter,
		GroupFilter:  cfg.LDAP.GroupFilter,
		Timeout:      cfg.LDAP.Timeout,
	}, log.Named("directory"))

	var ids provisioning.IDGenerator
	switch cfg.IDMode {
	case "sequence":
		ids = provisioning.NewSequenceIDs()
	default:
		ids = provisioning.RandomIDs{}
	}

	engine := filter.NewEngine(cfg.ExtensionURN(), log.Named("filter"))
	svc := provisioning.NewService(idx, cdc, gw, engine, ids, log.Named("provisioning"))

	// One-time startup rebuild from the directory. Scan failures are logged
	// and the connector starts with an empty index; the directory remains the
	// durable store.
	rebuildCtx, cancel := context.WithTimeout(context.Background(), 2*cfg.LDAP.Timeout)
	if err := svc.Rebuild(rebuildCtx); err != nil {
		log.Error("startup rebuild incomplete", "error", err)
	}
	cancel()

	handler := scim.NewHandler(svc, log.Named("scim"))
	server := &http.Server{
		Addr:              cfg.Listen,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("listening", "addr", cfg.Listen, "id_mode", cfg.IDMode,
		"extension_urn", cfg.ExtensionURN())
	if err := server.ListenAndServe(); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
