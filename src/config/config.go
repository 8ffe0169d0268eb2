package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Config is the application configuration loaded from config.json.
type Config struct {
	Email struct {
		Server        string   `json:"server"`         // IMAP server address with port
		Username      string   `json:"username"`       // mailbox account
		Password      string   `json:"password"`       // password or app token
		TargetSubject string   `json:"target_subject"` // subject keyword for dataset mail
		CheckInterval Duration `json:"check_interval"` // mailbox polling interval
	} `json:"email"`

	SendEmail struct {
		Server     string   `json:"server"`     // SMTP server address with port
		Username   string   `json:"username"`   // sender account
		Password   string   `json:"password"`   // password or app token
		Recipients []string `json:"recipients"` // report recipients
		Subject    string   `json:"subject"`    // report mail subject
	} `json:"send_email"`

	Webhook struct {
		BaseURL     string   `json:"base_url"` // gateway base URL, empty disables push
		AppKey      string   `json:"app_key"`
		AppSecret   string   `json:"app_secret"`
		AgentID     string   `json:"agent_id"`
		ReceiverIDs []string `json:"receiver_ids"`
	} `json:"webhook"`

	Cache struct {
		Backend string `json:"backend"` // "memory" or "redis"
		Addr    string `json:"addr"`    // redis address when backend is redis
	} `json:"cache"`

	DataDir         string `json:"data_dir"`         // dataset and attachment directory
	DatasetKeyword  string `json:"dataset_keyword"`  // filename keyword for dataset files
	SheetName       string `json:"sheet_name"`       // worksheet for xlsx datasets, empty means first
	MultipliersFile string `json:"multipliers_file"` // calibration file, empty keeps built-in tables
	ReportFile      string `json:"report_file"`      // Excel summary output path
	LogName         string `json:"log_name"`
	LogMaxSize      int64  `json:"log_max_size"` // rotation threshold in bytes
}

// DataConfig maps logical flight fields to the physical column
// headers of a vendor dataset.
type DataConfig struct {
	FlightData map[string]string `json:"flightData"`
}

var (
	once               sync.Once
	instance           *Config
	dataConfigInstance *DataConfig
	mu                 sync.RWMutex
)

func LoadConfig(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	var err error
	once.Do(func() {
		instance, dataConfigInstance, err = loadConfigs(jsonFolder, jsonFile, dataJsonFile)
	})
	return instance, dataConfigInstance, err
}

func loadConfigs(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	configFile := filepath.Join(jsonFolder, jsonFile)
	dataConfigFile := filepath.Join(jsonFolder, dataJsonFile)

	configData, err := readFile(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("read config file: %w", err)
	}

	dataConfigData, err := readFile(dataConfigFile)
	if err != nil {
		return nil, nil, fmt.Errorf("read data config file: %w", err)
	}

	cfgChan := make(chan *Config, 1)
	dcfgChan := make(chan *DataConfig, 1)
	errChan := make(chan error, 2)

	go parseConfig(configData, cfgChan, errChan)
	go parseDataConfig(dataConfigData, dcfgChan, errChan)

	cfg, dcfg, err := waitForResults(cfgChan, dcfgChan, errChan)
	if err != nil {
		return nil, nil, err
	}

	return cfg, dcfg, nil
}

func readFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", filePath, err)
	}
	return data, nil
}

func parseConfig(data []byte, resultChan chan<- *Config, errChan chan<- error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		errChan <- fmt.Errorf("parse Config: %w", err)
		return
	}
	resultChan <- &cfg
}

func parseDataConfig(data []byte, resultChan chan<- *DataConfig, errChan chan<- error) {
	var dcfg DataConfig
	if err := json.Unmarshal(data, &dcfg); err != nil {
		errChan <- fmt.Errorf("parse DataConfig: %w", err)
		return
	}
	if dcfg.FlightData == nil {
		dcfg.FlightData = make(map[string]string)
	}
	resultChan <- &dcfg
}

func waitForResults(
	cfgChan <-chan *Config,
	dcfgChan <-chan *DataConfig,
	errChan <-chan error,
) (*Config, *DataConfig, error) {
	var (
		cfg    *Config
		dcfg   *DataConfig
		errors []error
	)

	for i := 0; i < 2; i++ {
		select {
		case c := <-cfgChan:
			cfg = c
		case d := <-dcfgChan:
			dcfg = d
		case err := <-errChan:
			errors = append(errors, err)
		}
	}

	if len(errors) > 0 {
		return nil, nil, combineErrors(errors)
	}

	if cfg == nil || dcfg == nil {
		return nil, nil, fmt.Errorf("configuration only partially loaded")
	}

	return cfg, dcfg, nil
}

func combineErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	msg := "configuration loading hit multiple errors:"
	for _, err := range errs {
		msg = fmt.Sprintf("%s\n- %v", msg, err)
	}
	return fmt.Errorf("%s", msg)
}

// Duration wraps time.Duration so intervals can be written as
// strings like "5m" in JSON.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (dc *DataConfig) GetFlightData(field string) string {
	mu.RLock()
	defer mu.RUnlock()
	return dc.FlightData[field]
}

// FlightDataMap returns a copy of the whole column mapping.
func (dc *DataConfig) FlightDataMap() map[string]string {
	mu.RLock()
	defer mu.RUnlock()
	out := make(map[string]string, len(dc.FlightData))
	for k, v := range dc.FlightData {
		out[k] = v
	}
	return out
}

func (dc *DataConfig) SetFlightData(field, value string) {
	mu.Lock()
	defer mu.Unlock()
	dc.FlightData[field] = value
}
