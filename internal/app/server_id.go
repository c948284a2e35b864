package app

import (
	"os"
	"strings"

	"github.com/google/uuid"
)

// EnvInstanceID 显式指定实例ID
const EnvInstanceID = "IQRF_INSTANCE_ID"

// GenerateInstanceID 网关实例ID，写入每条日志与 build_info 指标
func GenerateInstanceID() string {
	if id := strings.TrimSpace(os.Getenv(EnvInstanceID)); id != "" {
		return id
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	// 容器内主机名可能带域名后缀
	host, _, _ = strings.Cut(host, ".")
	return "iqrf-gateway-" + host + "-" + uuid.NewString()[:8]
}
