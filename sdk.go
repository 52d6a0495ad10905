package ticos

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ticos-sdk/go-ticos/backend/memstorage"
	"github.com/ticos-sdk/go-ticos/internal/bufpool"
	"github.com/ticos-sdk/go-ticos/internal/config"
	"github.com/ticos-sdk/go-ticos/internal/coredump"
	"github.com/ticos-sdk/go-ticos/internal/eventstore"
	"github.com/ticos-sdk/go-ticos/internal/export"
	"github.com/ticos-sdk/go-ticos/internal/httpclient"
	"github.com/ticos-sdk/go-ticos/internal/interfaces"
	"github.com/ticos-sdk/go-ticos/internal/logging"
	"github.com/ticos-sdk/go-ticos/internal/logstore"
	"github.com/ticos-sdk/go-ticos/internal/metrics"
	"github.com/ticos-sdk/go-ticos/internal/packetizer"
	"github.com/ticos-sdk/go-ticos/internal/reboot"
	"github.com/ticos-sdk/go-ticos/internal/serialize"
	"github.com/ticos-sdk/go-ticos/internal/watchdog"
)

// Config re-exports internal/config's runtime-tunable knobs so callers
// never need to import the internal package directly.
type Config = config.Config

// DefaultConfig returns the SDK's built-in defaults.
func DefaultConfig() *Config {
	return config.Default()
}

// LoadConfig reads a TOML config file, starting from DefaultConfig() for
// any field the file omits.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// Reason re-exports the reboot-tracking reason taxonomy.
type Reason = reboot.Reason

const (
	ReasonUnknown          = reboot.ReasonUnknown
	ReasonPowerOnReset     = reboot.ReasonPowerOnReset
	ReasonSoftwareReset    = reboot.ReasonSoftwareReset
	ReasonSoftwareUpdate   = reboot.ReasonSoftwareUpdate
	ReasonButtonReset      = reboot.ReasonButtonReset
	ReasonPinReset         = reboot.ReasonPinReset
	ReasonLowPowerReset    = reboot.ReasonLowPowerReset
	ReasonHardwareWatchdog = reboot.ReasonHardwareWatchdog
	ReasonUnknownError     = reboot.ReasonUnknownError
	ReasonAssert           = reboot.ReasonAssert
	ReasonHardFault        = reboot.ReasonHardFault
	ReasonBusFault         = reboot.ReasonBusFault
	ReasonUsageFault       = reboot.ReasonUsageFault
	ReasonNMIWatchdog      = reboot.ReasonNMIWatchdog
	ReasonSoftwareWatchdog = reboot.ReasonSoftwareWatchdog
	ReasonBrownOutReset    = reboot.ReasonBrownOutReset
	ReasonLockup           = reboot.ReasonLockup
)

// RegInfo carries register state captured ahead of a deliberate reset.
type RegInfo = reboot.RegInfo

// ReasonData carries both the hardware-reported reset reason and the
// reason recorded via MarkResetImminent, as captured for this boot.
type ReasonData = reboot.ReasonData

// TraceEvent is the payload captured at a trace/reboot capture point.
type TraceEvent = serialize.TraceEvent

// Region is one chunk of data included in a coredump.
type Region = coredump.Region

// RegionType classifies a Region before it's translated to a wire block.
type RegionType = coredump.RegionType

const (
	RegionTypeMemory               = coredump.RegionTypeMemory
	RegionTypeMemoryWordAccessOnly = coredump.RegionTypeMemoryWordAccessOnly
	RegionTypeCachedMemory         = coredump.RegionTypeCachedMemory
	RegionTypeArmV6orV7Mpu         = coredump.RegionTypeArmV6orV7Mpu
	RegionTypeArmV6orV7MpuUnrolled = coredump.RegionTypeArmV6orV7MpuUnrolled
	RegionTypeImageIdentifier      = coredump.RegionTypeImageIdentifier
)

// CachedBlock describes a cached-memory region fixup.
type CachedBlock = coredump.CachedBlock

// SaveInfo is everything a caller supplies for one coredump capture.
type SaveInfo = coredump.SaveInfo

// MachineType identifies the CPU architecture a coredump was captured on.
type MachineType = coredump.MachineType

// LogLevel and RecordType re-export the structured-log taxonomy.
type RecordType = logstore.RecordType

const (
	RecordTypePreformatted = logstore.RecordTypePreformatted
	RecordTypeCompact      = logstore.RecordTypeCompact
)

// CdrMetadata and CdrSource re-export the custom-data-recording registry
// contract.
type CdrMetadata = serialize.CdrMetadata
type CdrSource = serialize.CdrSource

// MetricType re-exports the heartbeat metric value taxonomy.
type MetricType = metrics.Type

const (
	MetricTypeUnsigned = metrics.TypeUnsigned
	MetricTypeSigned   = metrics.TypeSigned
	MetricTypeTimer    = metrics.TypeTimer
	MetricTypeString   = metrics.TypeString
)

// MetricValue is a snapshotted heartbeat metric reading.
type MetricValue = metrics.Value

// systemClock implements interfaces.Clock against the real wall clock and
// a monotonic reference point captured at construction. Ordinary
// time-package plumbing, not a concern any third-party library covers.
type systemClock struct {
	start time.Time
}

func newSystemClock() *systemClock {
	return &systemClock{start: time.Now()}
}

func (c *systemClock) Now() (int64, bool) {
	return time.Now().Unix(), true
}

func (c *systemClock) MonotonicMillis() uint64 {
	return uint64(time.Since(c.start).Milliseconds())
}

var _ interfaces.Clock = (*systemClock)(nil)

// Options supplies everything Config doesn't: storage backends, a
// transport, and ambient dependency overrides. Every field is optional;
// New fills in RAM-backed defaults via backend/memstorage where a field
// is left zero, following a nil-options-means-defaults construction
// convention.
type Options struct {
	Context context.Context

	Logger   *logging.Logger
	Observer Observer
	Clock    interfaces.Clock

	// EventStorage backs the event ring buffer. Defaults to a
	// zeroed byte slice sized by Config.EventStorageCapacity.
	EventStorage []byte

	// LogStorage backs the structured-log ring. Defaults to a
	// zeroed byte slice the same size as EventStorage.
	LogStorage []byte

	// RebootRegion backs the persisted reboot-info record.
	// Defaults to a fresh (zeroed, i.e. "first boot") region; callers
	// that want the record to survive process restarts must supply the
	// same backing bytes across restarts themselves.
	RebootRegion []byte

	// CoredumpStorage backs the coredump capture path. Defaults to an
	// in-memory region sized at 4x Config.EventStorageCapacity.
	CoredumpStorage interfaces.Storage

	// Transport delivers packetizer chunks to the cloud endpoint.
	// Defaults to httpclient.NewTransport over an httpclient.Client
	// (wrapping an *http.Client) configured from Config.HTTP.
	Transport interfaces.Transport

	// WatchdogTimeout bounds the task-watchdog per-channel fed-time check.
	// Zero disables the watchdog (CheckAll/Bookkeep become no-ops).
	WatchdogTimeout time.Duration
}

// Collector is the SDK's composition root: one long-lived value owning
// every owned resource's state, lent out to callers through its method
// set instead of exposing the internal packages directly.
type Collector struct {
	cfg *Config

	logger   *logging.Logger
	clock    interfaces.Clock
	metrics  *Metrics
	observer Observer

	reboot *reboot.Tracker

	eventStore      *eventstore.Store
	heartbeat       *metrics.Registry
	metricsRecorder *serialize.MetricsRecorder
	traceRecorder   *serialize.TraceRecorder

	logStore  *logstore.Store
	logSource *serialize.LogDataSource

	cdrRegistry *serialize.CdrRegistry
	cdrSource   *serialize.CdrDataSource

	coredumpStorage interfaces.Storage
	coredumpInfo    coredump.DeviceInfo
	archRegions     []Region
	sdkRegions      []Region

	packetizer *packetizer.Packetizer
	transport  interfaces.Transport

	// httpClient and httpInfo are non-nil only when New constructed the
	// default httpclient-backed transport (opts.Transport was nil): OTA
	// checks need the underlying *httpclient.Client directly, since
	// interfaces.Transport's narrow Send-only contract has no room for
	// the GET-then-follow-redirect shape an OTA check needs.
	httpClient *httpclient.Client
	httpInfo   httpclient.DeviceInfo

	watchdog *watchdog.Watchdog

	ctx    context.Context
	cancel context.CancelFunc
}

func serializeDeviceInfo(cfg *Config) serialize.DeviceInfo {
	return serialize.DeviceInfo{
		DeviceSerial:       cfg.Device.Serial,
		SoftwareType:       cfg.Device.SoftwareType,
		SoftwareVersion:    cfg.Device.SoftwareVersion,
		HardwareVersion:    cfg.Device.HardwareVersion,
		BuildID:            cfg.Device.BuildID,
		EncodeDeviceSerial: cfg.Device.EncodeDeviceSerial,
	}
}

func coredumpDeviceInfo(cfg *Config) coredump.DeviceInfo {
	return coredump.DeviceInfo{
		DeviceSerial:    cfg.Device.Serial,
		SoftwareVersion: cfg.Device.SoftwareVersion,
		SoftwareType:    cfg.Device.SoftwareType,
		HardwareVersion: cfg.Device.HardwareVersion,
		BuildID:         cfg.Device.BuildID,
	}
}

func httpDeviceInfo(cfg *Config) httpclient.DeviceInfo {
	return httpclient.DeviceInfo{
		DeviceSerial:    cfg.Device.Serial,
		HardwareVersion: cfg.Device.HardwareVersion,
		SoftwareType:    cfg.Device.SoftwareType,
		SoftwareVersion: cfg.Device.SoftwareVersion,
	}
}

// New wires a Collector from cfg (nil uses DefaultConfig()) and opts
// (nil uses RAM-backed defaults throughout): default everything optional,
// then construct every owned resource in dependency order.
func New(cfg *Config, opts *Options) (*Collector, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if opts == nil {
		opts = &Options{}
	}

	ctx := context.Background()
	if opts.Context != nil {
		ctx = opts.Context
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewLogger(&logging.Config{Level: cfg.LoggingLevel(), JSON: cfg.Logging.JSON})
	}

	clock := opts.Clock
	if clock == nil {
		clock = newSystemClock()
	}

	m := NewMetrics()
	var observer Observer = NoOpObserver{}
	if opts.Observer != nil {
		observer = opts.Observer
	} else {
		observer = NewMetricsObserver(m)
	}

	eventBuf := opts.EventStorage
	if eventBuf == nil {
		eventBuf = make([]byte, cfg.EventStorageCapacity)
	}
	store := eventstore.New(eventBuf, eventstore.DefaultConfig())

	logBuf := opts.LogStorage
	if logBuf == nil {
		logBuf = make([]byte, cfg.EventStorageCapacity)
	}
	logStore := logstore.New(logBuf)

	rebootRegion := opts.RebootRegion
	if rebootRegion == nil {
		rebootRegion = make([]byte, reboot.RegionSize())
	}
	tracker := reboot.NewTracker(rebootRegion, logger)

	coredumpStorage := opts.CoredumpStorage
	if coredumpStorage == nil {
		coredumpStorage = memstorage.New(4 * cfg.EventStorageCapacity)
	}
	if cfg.CoredumpAlignmentBytes > 0 {
		coredumpStorage = coredump.NewBufferedStorage(coredumpStorage, cfg.CoredumpAlignmentBytes)
	}

	transport := opts.Transport
	var httpClient *httpclient.Client
	if transport == nil {
		httpClient = httpclient.NewClient(&http.Client{Timeout: cfg.HTTP.RequestTimeout}, logger)
		base, maxDelay := cfg.HTTP.RetryDelays()
		httpClient.Policy = httpclient.RetryPolicy{
			MaxRetries: cfg.HTTP.MaxRetries,
			BaseDelay:  base,
			MaxDelay:   maxDelay,
		}
		transport = httpclient.NewTransport(httpClient, cfg.HTTP.ChunksHost, cfg.Device.Serial, cfg.HTTP.ProjectKey)
	}

	sInfo := serializeDeviceInfo(cfg)

	heartbeat := metrics.NewRegistry(clock)
	metricsRecorder := serialize.NewMetricsRecorder(heartbeat, store, clock, sInfo, logger)
	traceRecorder := serialize.NewTraceRecorder(store, clock, sInfo, logger)
	logSource := serialize.NewLogDataSource(logStore, clock, sInfo)

	cdrRegistry := serialize.NewCdrRegistry(cfg.CDRMaxSources)
	cdrSource := serialize.NewCdrDataSource(cdrRegistry, sInfo, logger, cfg.CDRMaxEncodedMetadataLen)

	coredumpSource := coredump.NewDataSource(coredumpStorage)

	p := packetizer.New(coredumpSource, store, logSource, cdrSource, logger)
	p.SetActiveSources(cfg.ActiveSources)

	var wd *watchdog.Watchdog
	if opts.WatchdogTimeout > 0 {
		wd = watchdog.New(clock, opts.WatchdogTimeout, logger)
	}

	c := &Collector{
		cfg:             cfg,
		logger:          logger,
		clock:           clock,
		metrics:         m,
		observer:        observer,
		reboot:          tracker,
		eventStore:      store,
		heartbeat:       heartbeat,
		metricsRecorder: metricsRecorder,
		traceRecorder:   traceRecorder,
		logStore:        logStore,
		logSource:       logSource,
		cdrRegistry:     cdrRegistry,
		cdrSource:       cdrSource,
		coredumpStorage: coredumpStorage,
		coredumpInfo:    coredumpDeviceInfo(cfg),
		packetizer:      p,
		transport:       transport,
		httpClient:      httpClient,
		httpInfo:        httpDeviceInfo(cfg),
		watchdog:        wd,
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	return c, nil
}

// Close releases the Collector's lifetime context. It does not touch
// caller-supplied storage, which outlives the Collector by design (e.g.
// a RebootRegion the caller persists across process restarts).
func (c *Collector) Close() {
	if c.cancel != nil {
		c.cancel()
	}
}

// Metrics returns the Collector's operational counters.
func (c *Collector) Metrics() *Metrics { return c.metrics }

// MetricsSnapshot returns a point-in-time copy of the operational
// counters, safe to log or export.
func (c *Collector) MetricsSnapshot() Snapshot { return c.metrics.Snapshot() }

// HeartbeatMetrics returns the heartbeat metric value registry, for
// callers to Register*/Set*/Add values against before the next Heartbeat
// call.
func (c *Collector) HeartbeatMetrics() *metrics.Registry { return c.heartbeat }

// Heartbeat runs one full heartbeat cycle: force-update running timers,
// snapshot every registered metric, serialize to event storage, and
// reset every value for the next interval.
func (c *Collector) Heartbeat() bool {
	ok := c.metricsRecorder.Heartbeat()
	if !ok {
		c.observer.ObserveEventDropped(CodeNotEnoughSpace)
	}
	return ok
}

// MetricsDropCount returns and resets the number of heartbeats dropped
// for lack of event storage space since the last call.
func (c *Collector) MetricsDropCount() uint32 {
	return c.metricsRecorder.DropCount()
}

// CaptureTrace records a trace/reboot event from non-ISR context.
func (c *Collector) CaptureTrace(evt TraceEvent) bool {
	ok := c.traceRecorder.Capture(evt)
	if !ok {
		c.observer.ObserveEventDropped(CodeNotEnoughSpace)
	}
	return ok
}

// TraceDropCount returns and resets the number of trace events dropped
// for lack of event storage space since the last call.
func (c *Collector) TraceDropCount() uint32 {
	return c.traceRecorder.DropCount()
}

// CaptureTraceFromISR stashes evt in the single ISR-reentrant pending
// slot, flushed automatically before the next CaptureTrace.
func (c *Collector) CaptureTraceFromISR(evt TraceEvent) bool {
	return c.traceRecorder.CaptureFromISR(evt)
}

// Boot records this boot's reset reason against the reboot-tracking state
// machine, bumping the crash-loop counter if the reboot classifies as
// unexpected.
func (c *Collector) Boot(resetReason Reason, resetReasonReg0 uint32) {
	c.reboot.Boot(resetReason, resetReasonReg0)
}

// MarkResetImminent records a reboot reason ahead of a deliberate reset.
func (c *Collector) MarkResetImminent(reason Reason, reg *RegInfo) {
	c.reboot.MarkResetImminent(reason, reg)
}

// GetRebootReason returns the dual reg/stored reason captured by Boot or
// MarkResetImminent this boot, or false if neither has run yet.
func (c *Collector) GetRebootReason() (ReasonData, bool) {
	return c.reboot.GetRebootReason()
}

// CrashCount returns the current crash-loop counter: how many consecutive
// boots have classified as an unexpected reboot without an intervening
// ResetCrashCount (triggered internally once FlushRebootEvent reports the
// loop).
func (c *Collector) CrashCount() uint8 {
	return c.reboot.CrashCount()
}

// FlushRebootEvent emits a trace event for the previous boot's latched
// reboot reason, if any, observes it, and clears the latch so it is only
// ever reported once. It reports whether an event was latched and
// successfully captured.
func (c *Collector) FlushRebootEvent() bool {
	info, ok := c.reboot.ReadResetInfo()
	if !ok {
		return false
	}

	evt := TraceEvent{Reason: uint32(info.Reason), PC: info.PC, LR: info.LR}
	if !c.traceRecorder.Capture(evt) {
		c.observer.ObserveEventDropped(CodeNotEnoughSpace)
		return false
	}

	unexpected, _ := c.reboot.UnexpectedRebootOccurred()
	c.observer.ObserveReboot(unexpected, c.reboot.CrashCount())

	c.reboot.ClearResetInfo()
	c.reboot.ResetCrashCount()
	c.reboot.ClearRebootReason()
	return true
}

// SaveLog appends one structured log entry. Entries below the store's
// configured minimum level are silently dropped, matching
// ticos_log_save's filtering contract.
func (c *Collector) SaveLog(level uint8, typ RecordType, msg []byte) bool {
	ok := c.logStore.Save(level, typ, msg)
	if !ok {
		c.observer.ObserveLogsDropped(1)
	}
	return ok
}

// SetMinLogLevel filters out SaveLog calls below level.
func (c *Collector) SetMinLogLevel(level uint8) {
	c.logStore.SetMinSaveLevel(level)
}

// SetEventPersistTarget registers an optional non-volatile storage
// delegate events drain into ahead of a reboot, so queued events survive
// a crash instead of being lost with RAM.
func (c *Collector) SetEventPersistTarget(target eventstore.PersistTarget) {
	c.eventStore.SetPersistTarget(target)
}

// PersistEvents drains RAM-queued events into the registered persist
// target, returning how many were written. It is a no-op if no target
// has been set.
func (c *Collector) PersistEvents() int {
	return c.eventStore.Persist()
}

// EventStorageBytesUsed and EventStorageBytesFree report the event ring
// buffer's current utilization, mirroring ticos_event_storage_bytes_used
// and ticos_event_storage_bytes_free.
func (c *Collector) EventStorageBytesUsed() int { return c.eventStore.BytesUsed() }
func (c *Collector) EventStorageBytesFree() int { return c.eventStore.BytesFree() }

// TriggerLogCollection snapshots the currently-unsent logs for the next
// packetizer drain.
func (c *Collector) TriggerLogCollection() error {
	return c.logSource.TriggerCollection()
}

// RegisterCdrSource adds a custom-data-recording provider to the
// registry, assigning it a google/uuid-backed correlation id the moment
// it is claimed for upload (see internal/serialize/cdr.go).
func (c *Collector) RegisterCdrSource(src CdrSource) (int, error) {
	return c.cdrRegistry.Register(src)
}

// ActiveCdrCorrelationID returns the id assigned to the custom data
// recording currently being drained, or "" if none is in flight.
func (c *Collector) ActiveCdrCorrelationID() string {
	return c.cdrSource.CorrelationID()
}

// GetCoredumpSaveSize reports how many bytes a SaveCoredump call with the
// same save would write, without touching storage, so a caller can check
// available space before committing to a capture.
func (c *Collector) GetCoredumpSaveSize(save SaveInfo) int {
	return coredump.GetSaveSize(c.coredumpStorage, c.coredumpInfo, save, c.archRegions, c.sdkRegions)
}

// SaveCoredump captures save along with the Collector's configured
// arch/sdk regions. It refuses to overwrite an already-present valid
// coredump, matching the original's crash-loop-preserving behavior.
func (c *Collector) SaveCoredump(save SaveInfo) bool {
	sessionID := uuid.NewString()
	ok := coredump.Save(c.coredumpStorage, c.coredumpInfo, save, c.archRegions, c.sdkRegions)
	if ok {
		c.logger.Infof("coredump saved session_id=%s", sessionID)
		c.reboot.MarkCoredumpSaved()
		c.observer.ObserveCoredumpSaved(0, false)
	} else {
		c.logger.Warnf("coredump save failed or skipped session_id=%s", sessionID)
	}
	return ok
}

// SetArchRegions and SetSDKRegions configure the regions always included
// in every future SaveCoredump call, ahead of the caller-supplied
// SaveInfo.Regions.
func (c *Collector) SetArchRegions(regions []Region) { c.archRegions = regions }
func (c *Collector) SetSDKRegions(regions []Region)  { c.sdkRegions = regions }

// SetMachineType configures the MachineType block written into every
// future coredump.
func (c *Collector) SetMachineType(t MachineType) {
	coredump.SetMachineType(t)
}

// HasValidCoredump reports whether a saved coredump is pending upload.
func (c *Collector) HasValidCoredump() (int, bool) {
	return coredump.HasValidCoredump(c.coredumpStorage)
}

// SetActiveSources narrows which packetizer data sources are drained.
// Calling this aborts any in-progress message.
func (c *Collector) SetActiveSources(mask DataSourceMask) {
	c.packetizer.SetActiveSources(mask)
}

// GetChunk drains one complete chunk from the packetizer in single-packet
// mode, or reports false if nothing is available. The chunk's leading
// wire-header byte already identifies its message type (see SendChunk),
// so this does not need to report one separately.
func (c *Collector) GetChunk(buf []byte) (int, bool) {
	n, ok := c.packetizer.GetChunk(buf)
	if ok {
		c.observer.ObserveChunkEmitted(chunkMessageType(buf[:n]), n)
	}
	return n, ok
}

// chunkMessageType recovers the message type a GetChunk call framed into
// buf's leading wire-header byte, masking off the RLE flag bit.
func chunkMessageType(buf []byte) MessageType {
	if len(buf) == 0 {
		return MessageTypeNone
	}
	return MessageType(buf[0] &^ 0x80)
}

// SendChunk delivers a chunk obtained from GetChunk via the configured
// transport, recovering its message type from the wire header so callers
// don't need to track it themselves.
func (c *Collector) SendChunk(ctx context.Context, chunk []byte) error {
	return c.Send(ctx, byte(chunkMessageType(chunk)), chunk)
}

// DrainAndSend pulls and sends a single chunk using a pooled, MTU-sized
// scratch buffer instead of allocating one per call, for callers polling
// on a ticker. It reports false if nothing was
// available to send.
func (c *Collector) DrainAndSend(ctx context.Context) (bool, error) {
	buf := bufpool.Get(c.cfg.PacketizerMTU + 1) // +1 for the wire header byte
	defer bufpool.Put(buf)

	n, ok := c.GetChunk(buf)
	if !ok {
		return false, nil
	}
	if err := c.SendChunk(ctx, buf[:n]); err != nil {
		return true, err
	}
	return true, nil
}

// Send delivers a chunk via the configured transport.
func (c *Collector) Send(ctx context.Context, msgType byte, chunk []byte) error {
	if err := c.transport.Send(ctx, msgType, chunk); err != nil {
		return fmt.Errorf("ticos: send chunk: %w", err)
	}
	return nil
}

// CheckForOTAUpdate resolves the latest release's payload URL from the
// configured OTA/device API host. It returns an error if the Collector
// was constructed with a custom Options.Transport, since OTA checks need
// the underlying httpclient.Client directly rather than the narrow
// interfaces.Transport seam.
func (c *Collector) CheckForOTAUpdate(ctx context.Context) (*http.Response, error) {
	if c.httpClient == nil {
		return nil, fmt.Errorf("ticos: OTA check requires the default httpclient transport")
	}
	return c.httpClient.GetLatestOTAPayloadURL(ctx, c.cfg.HTTP.DeviceHost, c.cfg.HTTP.ProjectKey, c.httpInfo)
}

// DownloadOTAPayload fetches a payload URL previously resolved by
// CheckForOTAUpdate.
func (c *Collector) DownloadOTAPayload(ctx context.Context, payloadURL string) (*http.Response, error) {
	if c.httpClient == nil {
		return nil, fmt.Errorf("ticos: OTA download requires the default httpclient transport")
	}
	return c.httpClient.GetOTAPayload(ctx, payloadURL)
}

// ExportChunks drains every available chunk through sink as base64 lines,
// for bring-up or log-scraped integrations that can't reach the HTTP
// endpoint directly. It returns the number of chunks emitted.
func (c *Collector) ExportChunks(sink export.Sink, bufSize int) int {
	exporter := export.NewExporter(c.packetizer, sink, bufSize)
	return exporter.DumpChunks()
}

// FeedWatchdog marks channel fed, extending its deadline. It is a no-op
// if no WatchdogTimeout was configured.
func (c *Collector) FeedWatchdog(channel string) {
	if c.watchdog == nil {
		return
	}
	c.watchdog.Feed(channel)
}

// StartWatchdogChannel registers and starts a named watchdog channel. It
// is a no-op if no WatchdogTimeout was configured.
func (c *Collector) StartWatchdogChannel(channel string) {
	if c.watchdog == nil {
		return
	}
	c.watchdog.RegisterChannel(channel)
	c.watchdog.Start(channel)
}

// StopWatchdogChannel excludes channel from expiration checks until it is
// started again.
func (c *Collector) StopWatchdogChannel(channel string) {
	if c.watchdog == nil {
		return
	}
	c.watchdog.Stop(channel)
}

// CheckWatchdog scans every channel and invokes onExpired or onHealthy
// accordingly. It is a no-op if no WatchdogTimeout was configured.
func (c *Collector) CheckWatchdog(onExpired func(channels []string), onHealthy func()) {
	if c.watchdog == nil {
		return
	}
	c.watchdog.CheckAll(onExpired, onHealthy)
}
