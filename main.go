package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/glog"
	draftservice "github.com/hobbyfarm/examdesk/internal/draftsvc"
	examservice "github.com/hobbyfarm/examdesk/internal/examsvc"
	userservice "github.com/hobbyfarm/examdesk/internal/usersvc"
	"github.com/hobbyfarm/examdesk/pkg/config"
	"github.com/hobbyfarm/examdesk/pkg/microservices"
	"github.com/hobbyfarm/examdesk/pkg/store"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:          "examdesk",
	Short:        "serve the examdesk exam API",
	RunE:         app,
	SilenceUsage: true,
}

func init() {
	// glog registers -v, -logtostderr and friends on the go flag set
	rootCmd.Flags().AddGoFlagSet(flag.CommandLine)
	if err := config.BindFlags(viper.GetViper(), rootCmd.Flags()); err != nil {
		glog.Fatal(err)
	}
}

func app(cmd *cobra.Command, args []string) error {
	// flags are parsed by cobra, this only tells glog so
	if err := flag.CommandLine.Parse(nil); err != nil {
		return err
	}

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	policy, err := userservice.ParseRegistrationPolicy(cfg.RegistrationPolicy)
	if err != nil {
		return err
	}

	s := store.NewStore(cfg.DBPath)
	if _, err := s.Read(cmd.Context()); err != nil {
		return errors.Wrap(err, "opening store")
	}
	glog.V(2).Infof("using store %s", s.Path())

	directory := userservice.NewUserDirectory(s, policy)
	engine := examservice.NewExamEngine(s)
	drafts := draftservice.NewDraftManager(s)

	r := microservices.NewRouter(cfg.APIPrefix,
		userservice.NewUserServer(directory, cfg.MaxBodyBytes),
		draftservice.NewDraftServer(drafts, cfg.MaxBodyBytes),
		examservice.NewExamServer(engine, cfg.MaxBodyBytes),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           microservices.WrapHandler(r, os.Stdout),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return microservices.StartAPIServer(ctx, server, cfg.ShutdownGrace)
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		glog.Fatalf("error loading .env: %v", err)
	}

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		glog.Fatal(err)
	}
}
