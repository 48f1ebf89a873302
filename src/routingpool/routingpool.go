package routingpool

type RoutingPool interface {
	Start() error
	Stop()
}

var _ RoutingPool = (*SimpleRoutingPool)(nil)
