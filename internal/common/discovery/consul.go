package discovery

import (
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/consul/api"
)

// Resolver 基于 Consul 健康实例的 HTTP 服务解析器。
// 每个被解析过的服务挂一个后台 watcher，定期刷新健康实例列表；
// Resolve 在实例间轮询，起到最简单的客户端负载均衡作用。
type Resolver struct {
	client *api.Client

	mu       sync.RWMutex
	watchers map[string]*serviceWatcher
}

type serviceWatcher struct {
	client  *api.Client
	service string

	mu        sync.RWMutex
	addrs     []string
	next      int
	lastIndex uint64
}

// NewResolver 创建解析器
func NewResolver(client *api.Client) *Resolver {
	return &Resolver{
		client:   client,
		watchers: make(map[string]*serviceWatcher),
	}
}

// Resolve 返回一个健康实例的 host:port。
// 首次解析会同步查询一次 Consul，之后由后台 watcher 维护缓存。
func (r *Resolver) Resolve(service string) (string, error) {
	if r == nil || r.client == nil {
		return "", fmt.Errorf("consul resolver not initialized")
	}
	if service == "" {
		return "", fmt.Errorf("service name is empty")
	}

	r.mu.RLock()
	w, ok := r.watchers[service]
	r.mu.RUnlock()

	if !ok {
		r.mu.Lock()
		w, ok = r.watchers[service]
		if !ok {
			w = &serviceWatcher{client: r.client, service: service}
			r.watchers[service] = w
			w.update()
			go w.watch()
		}
		r.mu.Unlock()
	}

	return w.pick()
}

func (w *serviceWatcher) watch() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		w.update()
	}
}

func (w *serviceWatcher) update() {
	services, meta, err := w.client.Health().Service(w.service, "", true, &api.QueryOptions{
		WaitIndex: w.lastIndex,
	})
	if err != nil {
		return
	}

	addrs := make([]string, 0, len(services))
	for _, service := range services {
		addrs = append(addrs, fmt.Sprintf("%s:%d", service.Service.Address, service.Service.Port))
	}

	w.mu.Lock()
	w.lastIndex = meta.LastIndex
	if len(addrs) > 0 {
		w.addrs = addrs
	}
	w.mu.Unlock()
}

func (w *serviceWatcher) pick() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.addrs) == 0 {
		return "", fmt.Errorf("no healthy instances for service %s", w.service)
	}
	addr := w.addrs[w.next%len(w.addrs)]
	w.next++
	return addr, nil
}

// ServiceRegistry Consul服务注册。
// 服务端口为 HTTP 业务端口，健康检查走 gRPC 端口。
type ServiceRegistry struct {
	client    *api.Client
	serviceID string
	service   string
	address   string
	port      int
	tags      []string
	check     *api.AgentServiceCheck
}

// NewServiceRegistry 创建服务注册器
func NewServiceRegistry(client *api.Client, serviceID, service, address string, httpPort, grpcPort int, tags []string) *ServiceRegistry {
	return &ServiceRegistry{
		client:    client,
		serviceID: serviceID,
		service:   service,
		address:   address,
		port:      httpPort,
		tags:      tags,
		check: &api.AgentServiceCheck{
			GRPC:                           fmt.Sprintf("%s:%d", address, grpcPort),
			Interval:                       "10s",
			Timeout:                        "5s",
			DeregisterCriticalServiceAfter: "30s",
		},
	}
}

// Register 注册服务
func (r *ServiceRegistry) Register() error {
	registration := &api.AgentServiceRegistration{
		ID:      r.serviceID,
		Name:    r.service,
		Tags:    r.tags,
		Address: r.address,
		Port:    r.port,
		Check:   r.check,
	}

	return r.client.Agent().ServiceRegister(registration)
}

// Deregister 注销服务
func (r *ServiceRegistry) Deregister() error {
	return r.client.Agent().ServiceDeregister(r.serviceID)
}

// NewConsulClient 创建Consul客户端
func NewConsulClient(host string, port int) (*api.Client, error) {
	config := api.DefaultConfig()
	config.Address = fmt.Sprintf("%s:%d", host, port)
	return api.NewClient(config)
}
