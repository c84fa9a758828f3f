package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mynurseshift/backend/internal/config"
	"github.com/mynurseshift/backend/internal/mail"
	"github.com/mynurseshift/backend/internal/observability"
	"github.com/mynurseshift/backend/internal/queue"
	amqp "github.com/rabbitmq/amqp091-go"
	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	/**********************************************
	 * Configuration and logger
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.RequireSMTP(); err != nil {
		return err
	}

	logger, err := observability.NewLogger(cfg.LogLevel, !cfg.IsProduction())
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	/**********************************************
	 * SMTP client
	 **********************************************/
	client, err := gomail.NewClient(cfg.Email.SMTP.Host,
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithSSL(),
		gomail.WithPort(cfg.Email.SMTP.Port),
		gomail.WithUsername(cfg.Email.SMTP.Username),
		gomail.WithPassword(cfg.Email.SMTP.Password),
		gomail.WithTimeout(time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second),
	)
	if err != nil {
		return fmt.Errorf("create mail client: %w", err)
	}

	// fail fast on bad credentials
	dialCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second)
	defer cancel()
	if err := client.DialWithContext(dialCtx); err != nil {
		return fmt.Errorf("connect smtp server: %w", err)
	}
	_ = client.Close()

	renderer, err := mail.NewRenderer(cfg.Email.FrontendURL)
	if err != nil {
		return err
	}
	sender := mail.NewSender(client, renderer, cfg.Email.From, cfg.Email.SMTP.Username)

	/**********************************************
	 * RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		return fmt.Errorf("connect rabbitmq: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	q, err := queue.Declare(ch, cfg.RabbitMQ.Queue)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// one unacknowledged message at a time
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(
		q.Name,
		"",    // broker-assigned consumer tag
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ctx, stop := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	consumer := queue.NewConsumer(sender.Send, logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		consumer.Run(ctx, deliveries)
	}()

	logger.Info("waiting for messages", zap.String("queue", q.Name))
	<-sigChan

	logger.Info("stopping mail worker")
	stop()
	wg.Wait()
	logger.Info("mail worker stopped")
	return nil
}
