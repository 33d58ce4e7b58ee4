package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_HappyPath(t *testing.T) {
	tempDir := t.TempDir()

	tempConfigsSubDir := filepath.Join(tempDir, "configs")
	require.NoError(t, os.Mkdir(tempConfigsSubDir, 0755))

	testAppName := "SyncWorkerTest"
	testPort := 9090
	testLogLevel := "debug"
	testKafkaBrokers := "kafka1:9092,kafka2:9092"

	envContent := fmt.Sprintf(
		"APP_NAME=%s\nSERVER_PORT=%d\nLOG_LEVEL=%s\nKAFKA_BROKERS=%s\nSOURCE_VOUCHER_TYPES=Sales, Receipt ,\nSYNC_INTERVAL=45s\n",
		testAppName, testPort, testLogLevel, testKafkaBrokers,
	)
	envFilePath := filepath.Join(tempConfigsSubDir, "test_happy.env")
	require.NoError(t, os.WriteFile(envFilePath, []byte(envContent), 0644))

	originalWD, err := os.Getwd()
	require.NoError(t, err)
	defer func() {
		_ = os.Chdir(originalWD)
	}()
	require.NoError(t, os.Chdir(tempDir))

	cfg, err := LoadConfig("test_happy")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, testAppName, cfg.Application.Name)
	assert.Equal(t, testPort, cfg.Server.Port)
	assert.Equal(t, testLogLevel, cfg.Logging.Level)
	assert.Equal(t, testKafkaBrokers, cfg.Kafka.Brokers)
	assert.Equal(t, []string{"Sales", "Receipt"}, cfg.Source.VoucherTypes)
	assert.Equal(t, 45*time.Second, cfg.Sync.Interval)

	assert.Equal(t, "development", cfg.Application.Env)
	assert.Equal(t, "voucher_change_events", cfg.Kafka.ChangeEventTopic)
	assert.Equal(t, "voucher_sync_requests", cfg.Kafka.SyncRequestTopic)
	assert.Equal(t, 30*time.Minute, cfg.Sync.MasterInterval)
	assert.Equal(t, time.Second, cfg.Source.MinInterval)
	assert.Equal(t, "UTC", cfg.Reconciliation.Timezone)
	assert.Equal(t, []string{"PAYU", "SETTLEMENT", "COLLECT"}, cfg.Reconciliation.SettlementKeywords)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)

	cfgWithName, err := LoadConfigWithName("configs/test_happy")
	require.NoError(t, err)
	assert.Equal(t, testAppName, cfgWithName.Application.Name)

	cfgWithNameAndType, err := LoadConfigWithNameAndType("configs/test_happy", "env")
	require.NoError(t, err)
	assert.Equal(t, testAppName, cfgWithNameAndType.Application.Name)
}

func TestConfig_Validate_Defaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	assert.NoError(t, cfg.validate(), "Default config should be valid")
}

func TestConfig_Validate_CollectsErrors(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	cfg.Source.BaseURL = ""
	cfg.Sync.Interval = 0
	cfg.Reconciliation.Timezone = "Not/AZone"

	err := cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SOURCE_BASE_URL is required")
	assert.Contains(t, err.Error(), "SYNC_INTERVAL must be greater than 0")
	assert.Contains(t, err.Error(), "RECONCILIATION_TIMEZONE must be a valid IANA zone")
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Nil(t, splitList(" , ,"))
	assert.Equal(t, []string{"a", "b c"}, splitList("a, b c ,"))
}

func TestKafkaConfig_BrokerList(t *testing.T) {
	cfg := KafkaConfig{Brokers: "kafka-1:9092, kafka-2:9092,"}
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.BrokerList())
	assert.Empty(t, KafkaConfig{}.BrokerList())
}
