package discovery

type Option string

// Options for components
const (
	Availability           Option = "avty"
	AvailabilityTopic      Option = "avty_t"
	DeviceClass            Option = "dev_cla"
	EnabledByDefault       Option = "en"
	EntityCategory         Option = "ent_cat"
	ExpireAfter            Option = "exp_aft"
	Icon                   Option = "ic"
	JSONAttributesTopic    Option = "json_attr_t"
	JSONAttributesTemplate Option = "json_attr_tpl"
	Name                   Option = "name"
	ObjectID               Option = "obj_id"
	Platform               Option = "p"
	PayloadOff             Option = "pl_off"
	PayloadOn              Option = "pl_on"
	StateTopic             Option = "stat_t"
	UniqueID               Option = "uniq_id"
	ValueTemplate          Option = "val_tpl"
)

// Device classes
const (
	Connectivity = "connectivity"
)
