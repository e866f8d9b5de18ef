package discovery

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// EndpointResolver 解析 Soroban RPC 地址：静态地址优先，否则经 Consul 发现
type EndpointResolver struct {
	static      string
	discovery   ServiceDiscovery
	serviceName string
	lb          LoadBalancer
}

// NewEndpointResolver 创建解析器；discovery 可为 nil（只使用静态地址）
func NewEndpointResolver(static string, discovery ServiceDiscovery, serviceName string, lb LoadBalancer) *EndpointResolver {
	if lb == nil {
		lb = NewRoundRobinLoadBalancer()
	}
	return &EndpointResolver{
		static:      static,
		discovery:   discovery,
		serviceName: serviceName,
		lb:          lb,
	}
}

// Resolve 返回一个可用的 RPC URL
func (r *EndpointResolver) Resolve(ctx context.Context) (string, error) {
	if r.static != "" {
		return r.static, nil
	}
	if r.discovery == nil || r.serviceName == "" {
		return "", errors.New("no static RPC URL and no discovery configured")
	}

	services, err := r.discovery.Discover(ctx, r.serviceName, nil)
	if err != nil {
		return "", err
	}

	service := r.lb.Select(services)
	if service == nil {
		return "", errors.Wrapf(ErrNoServiceAvailable, "service %s", r.serviceName)
	}

	url := ServiceURL(service)
	log.Debug().Str("service_id", service.ID).Str("url", url).Msg("Resolved RPC endpoint")
	return url, nil
}

// ServiceURL 由实例信息拼出 URL（Meta 中 scheme / path 可选）
func ServiceURL(service *ServiceInfo) string {
	scheme := service.Meta["scheme"]
	if scheme == "" {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s:%d%s", scheme, service.Address, service.Port, service.Meta["path"])
}
