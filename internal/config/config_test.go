package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"ECOFINDS_ADDR", "DATABASE_URL", "CHECKOUT_TIMEOUT", "PURCHASE_RETRIES", "KAFKA_BROKERS", "ORDER_EVENTS_TOPIC", "ALLOW_RESET_PRODUCTS"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.Addr != ":8080" {
		t.Errorf("expected default addr :8080, got %q", cfg.Addr)
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("expected empty database url, got %q", cfg.DatabaseURL)
	}
	if cfg.CheckoutTimeout != 10*time.Second {
		t.Errorf("expected 10s checkout timeout, got %v", cfg.CheckoutTimeout)
	}
	if cfg.PurchaseRetries != 3 {
		t.Errorf("expected 3 purchase retries, got %d", cfg.PurchaseRetries)
	}
	if len(cfg.KafkaBrokers) != 0 {
		t.Errorf("expected no kafka brokers, got %v", cfg.KafkaBrokers)
	}
	if cfg.OrderEventsTopic != "orders.completed" {
		t.Errorf("unexpected topic %q", cfg.OrderEventsTopic)
	}
	if cfg.AllowResetProducts {
		t.Errorf("reset products should be disabled by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ECOFINDS_ADDR", ":9090")
	t.Setenv("CHECKOUT_TIMEOUT", "2s")
	t.Setenv("PURCHASE_RETRIES", "5")
	t.Setenv("KAFKA_BROKERS", " kafka-1:9092, ,kafka-2:9092 ")
	t.Setenv("ALLOW_RESET_PRODUCTS", "1")

	cfg := Load()
	if cfg.Addr != ":9090" {
		t.Errorf("expected :9090, got %q", cfg.Addr)
	}
	if cfg.CheckoutTimeout != 2*time.Second {
		t.Errorf("expected 2s, got %v", cfg.CheckoutTimeout)
	}
	if cfg.PurchaseRetries != 5 {
		t.Errorf("expected 5 retries, got %d", cfg.PurchaseRetries)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[0] != "kafka-1:9092" || cfg.KafkaBrokers[1] != "kafka-2:9092" {
		t.Errorf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if !cfg.AllowResetProducts {
		t.Errorf("expected reset products to be enabled")
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("CHECKOUT_TIMEOUT", "soon")
	t.Setenv("PURCHASE_RETRIES", "-2")

	cfg := Load()
	if cfg.CheckoutTimeout != 10*time.Second {
		t.Errorf("expected fallback timeout, got %v", cfg.CheckoutTimeout)
	}
	if cfg.PurchaseRetries != 3 {
		t.Errorf("expected fallback retries, got %d", cfg.PurchaseRetries)
	}
}
