package core

var (
	_ Registry        = (*TenantRegistry)(nil)
	_ ConfigProvider  = (*CfgxConfigProvider)(nil)
	_ RawConfigLoader = staticRawConfigLoader{}
)
