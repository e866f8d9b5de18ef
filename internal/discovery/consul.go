package discovery

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hashicorp/consul/api"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ConsulDiscovery Consul实现的服务发现
type ConsulDiscovery struct {
	client *api.Client
}

// NewConsulDiscovery 创建Consul服务发现实例
func NewConsulDiscovery(address string) (*ConsulDiscovery, error) {
	config := api.DefaultConfig()
	config.Address = address

	client, err := api.NewClient(config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create consul client")
	}

	return &ConsulDiscovery{client: client}, nil
}

// Register 注册服务到Consul
func (c *ConsulDiscovery) Register(ctx context.Context, service *ServiceInfo) error {
	registration, err := buildRegistration(service)
	if err != nil {
		return err
	}

	if err := c.client.Agent().ServiceRegisterOpts(registration, api.ServiceRegisterOpts{}.WithContext(ctx)); err != nil {
		return errors.Wrapf(err, "failed to register service %s", service.ID)
	}

	log.Info().
		Str("service_id", service.ID).
		Str("service_name", service.Name).
		Str("address", service.Address).
		Int("port", service.Port).
		Msg("Service registered successfully")

	return nil
}

func buildRegistration(service *ServiceInfo) (*api.AgentServiceRegistration, error) {
	if service.ID == "" {
		return nil, errors.New("service ID cannot be empty")
	}
	if service.Name == "" {
		return nil, errors.New("service name cannot be empty")
	}

	registration := &api.AgentServiceRegistration{
		ID:      service.ID,
		Name:    service.Name,
		Address: service.Address,
		Port:    service.Port,
		Tags:    service.Tags,
		Meta:    service.Meta,
	}

	if service.Check != nil {
		check := &api.AgentServiceCheck{}

		switch service.Check.Type {
		case "http":
			check.HTTP = fmt.Sprintf("http://%s:%d%s", service.Address, service.Port, service.Check.Path)
			check.Method = "GET"
		case "tcp":
			check.TCP = fmt.Sprintf("%s:%d", service.Address, service.Port)
		default:
			return nil, errors.Errorf("unsupported health check type: %s", service.Check.Type)
		}

		check.Interval = service.Check.Interval.String()
		check.Timeout = service.Check.Timeout.String()
		if service.Check.DeregisterCriticalServiceAfter > 0 {
			check.DeregisterCriticalServiceAfter = service.Check.DeregisterCriticalServiceAfter.String()
		}

		registration.Check = check
	}

	return registration, nil
}

// Deregister 从Consul注销服务
func (c *ConsulDiscovery) Deregister(ctx context.Context, serviceID string) error {
	if err := c.client.Agent().ServiceDeregisterOpts(serviceID, (&api.QueryOptions{}).WithContext(ctx)); err != nil {
		return errors.Wrapf(err, "failed to deregister service %s", serviceID)
	}

	log.Info().Str("service_id", serviceID).Msg("Service deregistered successfully")
	return nil
}

// Discover 从Consul发现健康的服务实例
func (c *ConsulDiscovery) Discover(ctx context.Context, serviceName string, tags []string) ([]*ServiceInfo, error) {
	entries, _, err := c.client.Health().ServiceMultipleTags(serviceName, tags, true, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to discover services %s", serviceName)
	}

	result := make([]*ServiceInfo, 0, len(entries))
	for _, entry := range entries {
		result = append(result, toServiceInfo(entry))
	}

	log.Debug().
		Str("service_name", serviceName).
		Strs("tags", tags).
		Int("found_services", len(result)).
		Msg("Service discovery completed")

	return result, nil
}

func toServiceInfo(entry *api.ServiceEntry) *ServiceInfo {
	info := &ServiceInfo{
		ID:      entry.Service.ID,
		Name:    entry.Service.Service,
		Address: entry.Service.Address,
		Port:    entry.Service.Port,
		Tags:    entry.Service.Tags,
		Meta:    entry.Service.Meta,
	}
	// 服务未设置地址时使用节点地址
	if info.Address == "" && entry.Node != nil {
		info.Address = entry.Node.Address
	}
	if weightStr, ok := entry.Service.Meta["weight"]; ok {
		if weight, err := strconv.Atoi(weightStr); err == nil {
			info.Weight = weight
		}
	}
	return info
}

// Close 关闭Consul连接
func (c *ConsulDiscovery) Close() error {
	// Consul客户端不需要显式关闭
	return nil
}
