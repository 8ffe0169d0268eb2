package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"FlightRiskPricing/src/config"
	"FlightRiskPricing/src/datapush"
	"FlightRiskPricing/src/datasource/email"
	"FlightRiskPricing/src/datasource/file"
	"FlightRiskPricing/src/pricing"
	"FlightRiskPricing/src/processor"
	"FlightRiskPricing/src/repository"
	"FlightRiskPricing/src/storage"

	"github.com/robfig/cron"
)

func main() {
	var (
		mode      = flag.String("mode", "watch", "run mode: watch, report, price or demo")
		configDir = flag.String("config", "./config", "directory holding the JSON config files")
		dataset   = flag.String("dataset", "", "dataset file for report mode (default: newest file in the data dir)")
		listen    = flag.String("listen", ":8080", "address of the live log stream in watch mode")
		airline   = flag.String("airline", "MU", "airline code for price mode")
		departure = flag.String("departure", "PVG", "departure airport for price mode")
		arrival   = flag.String("arrival", "HKG", "arrival airport for price mode")
		date      = flag.String("date", "", "flight date for price mode, e.g. 2024-07-21 (default: today)")
		hour      = flag.Int("hour", 12, "departure hour for price mode (0-23)")
		base      = flag.Float64("base", 0, "base premium override for price mode")
	)
	flag.Parse()

	cfg, dcfg, err := config.LoadConfig(*configDir, "config.json", "dataconfig.json")
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	logName := cfg.LogName
	if logName == "" {
		logName = "app.log"
	}
	logger, err := storage.NewLogger(logName)
	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}
	defer logger.Close()

	svc, err := buildPricingService(cfg, logger)
	if err != nil {
		logger.Error(err.Error())
		log.Fatal(err)
	}
	pusher := datapush.NewPusher(cfg)

	switch *mode {
	case "watch":
		err = runWatch(cfg, dcfg, svc, pusher, logger, *listen)
	case "report":
		err = runReport(cfg, dcfg, svc, pusher, logger, *dataset)
	case "price":
		err = runPrice(svc, *airline, *departure, *arrival, *date, *hour, *base)
	case "demo":
		err = runDemo(svc)
	default:
		err = fmt.Errorf("unknown mode %q (expected watch, report, price or demo)", *mode)
	}
	if err != nil {
		logger.Error(err.Error())
		log.Fatal(err)
	}
}

// buildPricingService assembles the premium service from the configured
// calibration file and cache backend. A missing calibration file falls
// back to the built-in tables.
func buildPricingService(cfg *config.Config, logger *storage.Logger) (*pricing.PremiumService, error) {
	model := pricing.DefaultPricingModel()
	if cfg.MultipliersFile != "" {
		if _, err := os.Stat(cfg.MultipliersFile); err == nil {
			loaded, err := pricing.LoadModel(cfg.MultipliersFile)
			if err != nil {
				return nil, fmt.Errorf("load calibration: %w", err)
			}
			model = loaded
			logger.Info("Loaded pricing calibration from " + cfg.MultipliersFile)
		} else {
			logger.Warning("Calibration file " + cfg.MultipliersFile + " not found, using built-in tables")
		}
	}

	cache, err := newQuoteCache(cfg)
	if err != nil {
		return nil, err
	}
	return pricing.NewPremiumService(model, cache, logger), nil
}

func newQuoteCache(cfg *config.Config) (repository.QuoteCache, error) {
	switch cfg.Cache.Backend {
	case "", "memory":
		return repository.NewMemoryCache(), nil
	case "redis":
		if cfg.Cache.Addr == "" {
			return nil, fmt.Errorf("cache backend redis requires an address")
		}
		return repository.NewRedisCache(cfg.Cache.Addr), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// runReport analyzes one dataset and delivers the result.
func runReport(cfg *config.Config, dcfg *config.DataConfig, svc *pricing.PremiumService,
	pusher *datapush.Pusher, logger *storage.Logger, datasetPath string) error {
	if datasetPath == "" {
		latest, err := file.FindLatestDataset(cfg.DataDir, cfg.DatasetKeyword)
		if err != nil {
			return fmt.Errorf("locate dataset: %w", err)
		}
		datasetPath = latest.FullPath
	}

	res, err := processor.RunAnalysis(datasetPath, cfg.SheetName, dcfg, svc.Model(), logger)
	if err != nil {
		return err
	}
	fmt.Println(res.Report)
	deliverReport(cfg, res, pusher, logger)
	return nil
}

// runPrice quotes a single flight from the command line flags.
func runPrice(svc *pricing.PremiumService, airline, departure, arrival, date string, hour int, base float64) error {
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	req := pricing.FlightRequest{
		Airline:   airline,
		Departure: departure,
		Arrival:   arrival,
		Date:      date,
		Hour:      hour,
	}
	if base > 0 {
		req.BasePremium = &base
	}

	result, err := svc.Quote(req)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// runDemo prints quotes for three reference flights covering the risk
// spectrum, plus the pricing recommendations derived from the active
// calibration.
func runDemo(svc *pricing.PremiumService) error {
	demos := []pricing.FlightRequest{
		{Airline: "8L", Departure: "HKG", Arrival: "JFK", Date: "2024-01-15", Hour: 14},
		{Airline: "FM", Departure: "HKG", Arrival: "PVG", Date: "2024-07-15", Hour: 11},
		{Airline: "SV", Departure: "HKG", Arrival: "SUB", Date: "2024-07-21", Hour: 3},
	}
	for _, req := range demos {
		result, err := svc.Quote(req)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Printf("Quote for %s %s-%s on %s at %02d:00\n%s\n\n",
			req.Airline, req.Departure, req.Arrival, req.Date, req.Hour, out)
	}

	rec, err := json.MarshalIndent(svc.Model().PricingRecommendations(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println("Pricing recommendations:")
	fmt.Println(string(rec))
	return nil
}

// runWatch runs the long-lived service: a cron loop polling the mailbox
// for dataset attachments, a filesystem watcher on the data dir and the
// calibration file, and a live log stream.
func runWatch(cfg *config.Config, dcfg *config.DataConfig, svc *pricing.PremiumService,
	pusher *datapush.Pusher, logger *storage.Logger, listenAddr string) error {
	if err := file.EnsureDir(cfg.DataDir); err != nil {
		return fmt.Errorf("prepare data dir: %w", err)
	}

	emailClient := email.NewEmailClient(cfg.Email.Server, cfg.Email.Username, cfg.Email.Password)
	handler := email.NewDatasetAttachmentHandler(cfg.Email.TargetSubject, cfg.DataDir)

	analyze := func(path string) {
		res, err := processor.RunAnalysis(path, cfg.SheetName, dcfg, svc.Model(), logger)
		if err != nil {
			logger.Error("Analysis failed for " + path + ": " + err.Error())
			return
		}
		deliverReport(cfg, res, pusher, logger)
	}

	c := cron.New()
	interval := time.Duration(cfg.Email.CheckInterval).String()
	cronSpec := fmt.Sprintf("@every %s", interval)
	err := c.AddFunc(cronSpec, func() {
		logger.Info(fmt.Sprintf("Checking mailbox (interval %v)...", interval))
		start := time.Now()

		mail, err := email.CheckAndProcessEmails(emailClient, cfg.Email.TargetSubject, logger)
		if err != nil {
			logger.Error("Mailbox check failed: " + err.Error())
			return
		}
		if mail == nil {
			return
		}

		saved, err := handler.Handle(mail)
		if err != nil {
			logger.Error(fmt.Sprintf("Failed to save attachments (UID %d): %v", mail.UID, err))
			return
		}
		for _, path := range saved {
			analyze(path)
		}
		logger.Info(fmt.Sprintf("Mailbox cycle finished in %v", time.Since(start)))
	})
	if err != nil {
		return fmt.Errorf("schedule mailbox check: %w", err)
	}
	err = c.AddFunc("@every 1h", func() {
		if err := logger.CheckRotate(cfg); err != nil {
			logger.Error("Log rotation failed: " + err.Error())
		}
	})
	if err != nil {
		return fmt.Errorf("schedule log rotation: %w", err)
	}

	watchPaths := []string{cfg.DataDir}
	if cfg.MultipliersFile != "" {
		if _, err := os.Stat(cfg.MultipliersFile); err == nil {
			watchPaths = append(watchPaths, cfg.MultipliersFile)
		}
	}
	monitor, err := file.NewFileMonitor(watchPaths...)
	if err != nil {
		return fmt.Errorf("start file monitor: %w", err)
	}
	go func() {
		err := monitor.Watch(func(path string) {
			if cfg.MultipliersFile != "" && filepath.Base(path) == filepath.Base(cfg.MultipliersFile) {
				model, err := pricing.LoadModel(cfg.MultipliersFile)
				if err != nil {
					logger.Error("Failed to reload calibration: " + err.Error())
					return
				}
				svc.SetModel(model)
				logger.Info("Pricing calibration reloaded from " + cfg.MultipliersFile)
				return
			}
			if !file.IsDatasetFile(path) {
				return
			}
			logger.Info("Dataset update detected: " + path)
			analyze(path)
		})
		if err != nil {
			logger.Error("File monitoring stopped: " + err.Error())
		}
	}()

	go startLogStream(logger, listenAddr)

	c.Start()
	defer c.Stop()
	defer monitor.Close()

	logger.Info(fmt.Sprintf("Watch mode started (mailbox every %v), press Ctrl+C to exit", interval))
	waitForShutdown(logger)
	return nil
}

// deliverReport fans the analysis result out to every configured
// channel: summary workbook, report email and gateway push. Delivery
// failures are logged but never abort the run.
func deliverReport(cfg *config.Config, res *processor.AnalysisResult, pusher *datapush.Pusher, logger *storage.Logger) {
	var attachments []string
	if cfg.ReportFile != "" {
		if err := processor.ExportSummary(cfg.ReportFile, res.Overview, res.Sections); err != nil {
			logger.Error("Failed to export summary workbook: " + err.Error())
		} else {
			attachments = append(attachments, cfg.ReportFile)
			logger.Info("Summary workbook written to " + cfg.ReportFile)
		}
	}

	if cfg.SendEmail.Server != "" {
		if err := email.SendReport(cfg, "", res.Report, attachments); err != nil {
			logger.Error("Failed to send report email: " + err.Error())
		} else {
			logger.Info("Report emailed to " + strings.Join(cfg.SendEmail.Recipients, ", "))
		}
	}

	if pusher != nil {
		if err := pusher.PushReport(res.Report); err != nil {
			logger.Error("Failed to push report: " + err.Error())
		} else {
			logger.Info("Report pushed to the message gateway")
		}
	}
}

// logStreamHandler streams log entries to the client as they arrive.
func logStreamHandler(logger *storage.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		logChan := logger.Subscribe()
		for {
			select {
			case msg := <-logChan:
				// Entries already carry a trailing newline.
				if _, err := fmt.Fprint(w, msg); err != nil {
					return
				}
				if f, ok := w.(http.Flusher); ok {
					f.Flush()
				}
			case <-r.Context().Done():
				return
			}
		}
	}
}

// startLogStream serves the live log on /logs for tailing in a browser.
func startLogStream(logger *storage.Logger, addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/logs", logStreamHandler(logger))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("Log stream server stopped: " + err.Error())
	}
}

func waitForShutdown(logger *storage.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("Received signal: " + sig.String() + ", shutting down...")
}
