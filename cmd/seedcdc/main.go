// seedcdc emits synthetic Debezium-style change events for the three entity
// streams, either to jsonl files or straight to Kafka. Useful for local
// development and load testing against a broker with no upstream database.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type config struct {
	Customers int
	Orders    int
	MaxItems  int
	OutDir    string
	Bootstrap string

	TopicCustomers string
	TopicOrders    string
	TopicLineItems string
}

func main() {
	var cfg config
	flag.IntVar(&cfg.Customers, "customers", 20, "number of customers to generate")
	flag.IntVar(&cfg.Orders, "orders", 100, "number of orders to generate")
	flag.IntVar(&cfg.MaxItems, "max-items", 5, "max line items per order")
	flag.StringVar(&cfg.OutDir, "out", "./seed", "output directory for jsonl files (file mode)")
	flag.StringVar(&cfg.Bootstrap, "kafka-bootstrap", "", "kafka bootstrap servers; empty means file mode")
	flag.StringVar(&cfg.TopicCustomers, "topic-customers", "globex.updates.public.customers", "customers topic")
	flag.StringVar(&cfg.TopicOrders, "topic-orders", "globex.updates.public.orders", "orders topic")
	flag.StringVar(&cfg.TopicLineItems, "topic-line-items", "globex.updates.public.line_items", "line items topic")
	flag.Parse()

	if err := generate(cfg); err != nil {
		log.Fatalf("seedcdc failed: %v", err)
	}
}

// event is the outbound envelope shape consumed by the dashboard.
type event struct {
	Op    string                 `json:"op"`
	After map[string]interface{} `json:"after"`
}

type sink interface {
	emit(topic string, key string, e event) error
	close() error
}

func generate(cfg config) error {
	var out sink
	if cfg.Bootstrap != "" {
		out = newKafkaSink(cfg.Bootstrap)
	} else {
		fs, err := newFileSink(cfg.OutDir)
		if err != nil {
			return err
		}
		out = fs
	}
	defer out.close()

	firstNames := []string{"Ana", "Ben", "Chloe", "Dev", "Elena", "Femi", "Grace", "Hugo"}
	lastNames := []string{"Lee", "Okoro", "Sato", "Novak", "Silva", "Khan", "Weber", "Diaz"}
	products := []string{"SKU-ALPHA", "SKU-BRAVO", "SKU-CHARLIE", "SKU-DELTA", "SKU-ECHO"}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	base := time.Now().UTC().Add(-24 * time.Hour)

	for i := 0; i < cfg.Customers; i++ {
		e := event{Op: "c", After: map[string]interface{}{
			"user_id":    fmt.Sprintf("%d", i+1),
			"first_name": firstNames[rng.Intn(len(firstNames))],
			"last_name":  lastNames[rng.Intn(len(lastNames))],
			"email":      fmt.Sprintf("user%d@globex.example", i+1),
		}}
		if err := out.emit(cfg.TopicCustomers, uuid.NewString(), e); err != nil {
			return fmt.Errorf("emit customer: %w", err)
		}
	}

	itemID := 0
	for i := 0; i < cfg.Orders; i++ {
		orderID := i + 100
		ts := base.Add(time.Duration(rng.Intn(86400)) * time.Second)
		e := event{Op: "c", After: map[string]interface{}{
			"id":          orderID,
			"customer_id": fmt.Sprintf("%d", rng.Intn(cfg.Customers)+1),
			"order_ts":    ts.UnixMicro(),
		}}
		if err := out.emit(cfg.TopicOrders, uuid.NewString(), e); err != nil {
			return fmt.Errorf("emit order: %w", err)
		}

		for n := rng.Intn(cfg.MaxItems) + 1; n > 0; n-- {
			itemID++
			price := float64(rng.Intn(9000)+100) / 100
			after := map[string]interface{}{
				"id":           itemID,
				"order_id":     orderID,
				"product_code": products[rng.Intn(len(products))],
				"quantity":     rng.Intn(4) + 1,
			}
			// Upstream sends prices as either numbers or strings; mirror that.
			if rng.Intn(2) == 0 {
				after["price"] = fmt.Sprintf("%.2f", price)
			} else {
				after["price"] = price
			}
			if err := out.emit(cfg.TopicLineItems, uuid.NewString(), event{Op: "c", After: after}); err != nil {
				return fmt.Errorf("emit line item: %w", err)
			}
		}
	}

	log.Printf("generated %d customers, %d orders, %d line items", cfg.Customers, cfg.Orders, itemID)
	return nil
}

// fileSink writes one jsonl file per topic under a base directory.
type fileSink struct {
	dir   string
	files map[string]*os.File
}

func newFileSink(dir string) (*fileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	return &fileSink{dir: dir, files: make(map[string]*os.File)}, nil
}

func (f *fileSink) emit(topic string, _ string, e event) error {
	file, ok := f.files[topic]
	if !ok {
		var err error
		file, err = os.Create(filepath.Join(f.dir, topic+".jsonl"))
		if err != nil {
			return fmt.Errorf("create: %w", err)
		}
		f.files[topic] = file
	}
	return json.NewEncoder(file).Encode(&e)
}

func (f *fileSink) close() error {
	for _, file := range f.files {
		_ = file.Close()
	}
	return nil
}

// kafkaSink produces to topics with a shared pure-Go writer.
type kafkaSink struct {
	writer *kafka.Writer
}

func newKafkaSink(bootstrap string) *kafkaSink {
	var brokers []string
	for _, a := range strings.Split(bootstrap, ",") {
		if a = strings.TrimSpace(a); a != "" {
			brokers = append(brokers, a)
		}
	}
	return &kafkaSink{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}}
}

func (k *kafkaSink) emit(topic string, key string, e event) error {
	b, err := json.Marshal(&e)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return k.writer.WriteMessages(context.Background(), kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: b,
	})
}

func (k *kafkaSink) close() error { return k.writer.Close() }
