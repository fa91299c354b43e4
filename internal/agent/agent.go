package agent

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hpcloud/tail"
	"github.com/pkg/errors"

	"github.com/Chichichkin/SeqRelay/pkg/logging"
	"github.com/Chichichkin/SeqRelay/pkg/seqlog"
)

// Service tails log files under the configured roots and ships every new
// line as a structured event. A fixed worker pool consumes the file queue;
// each busy worker follows one file until it goes idle or the service
// stops. Directories are watched for new files between full rescans.
type Service struct {
	config    Config
	logger    *seqlog.Logger
	fileQueue chan string
	workersWg sync.WaitGroup
	subWg     sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	metrics   *AgentMetrics
	watcher   *fsnotify.Watcher

	seenMutex sync.Mutex
	seenFiles map[string]struct{}
}

func NewService(ctx context.Context, config Config, logger *seqlog.Logger) *Service {
	nCtx, cancel := context.WithCancel(ctx)

	return &Service{
		config:    config,
		logger:    logger,
		fileQueue: make(chan string, config.FileQueueSize),
		ctx:       nCtx,
		cancel:    cancel,
		metrics: &AgentMetrics{
			FileQueueCapacity: config.FileQueueSize,
		},
		seenFiles: make(map[string]struct{}),
	}
}

func (s *Service) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create filesystem watcher")
	}
	s.watcher = watcher

	log.Printf("Starting shipping agent: workers=%d, queue size=%d, roots=%v",
		s.config.Workers, s.config.FileQueueSize, s.config.LogRoots)

	for i := 0; i < s.config.Workers; i++ {
		s.workersWg.Add(1)
		go s.worker(i)
	}

	s.subWg.Add(1)
	go s.watchLoop()

	s.subWg.Add(1)
	go s.rescanLoop()

	s.subWg.Add(1)
	go s.metricsReporter()

	s.scanRoots()

	log.Println("Shipping agent started")
	return nil
}

func (s *Service) Stop() {
	log.Println("Stopping shipping agent...")
	s.cancel()

	if s.watcher != nil {
		s.watcher.Close()
	}

	s.subWg.Wait()

	close(s.fileQueue)
	s.workersWg.Wait()

	log.Println("Shipping agent stopped")
}

func (s *Service) worker(id int) {
	defer s.workersWg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Worker %d panicked: %v", id, r)
		}
	}()

	for {
		select {
		case path, ok := <-s.fileQueue:
			if !ok {
				return
			}
			s.metrics.DecQueuedFiles()
			s.metrics.IncWorkersBusy()
			s.tailFile(path)
			s.metrics.DecWorkersBusy()

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Service) tailFile(path string) {
	defer s.forgetFile(path)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Tailing panicked for %s: %v", path, r)
			s.metrics.IncFilesFailed()
		}
	}()

	t, err := tail.TailFile(path, tail.Config{
		Follow:   true,
		ReOpen:   true,
		Poll:     true,
		Location: &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd},
		Logger:   tail.DiscardingLogger,
	})
	if err != nil {
		log.Printf("Failed to tail file %s: %v", path, err)
		s.metrics.IncFilesFailed()
		return
	}
	defer t.Cleanup()
	defer t.Stop()

	s.metrics.IncFilesTailed()

	fileLogger := s.logger.
		WithThreadName("tail:" + filepath.Base(path)).
		With(logging.Properties{
			"SourceFile": path,
			"Node":       s.config.NodeName,
		})

	checkTicker := time.NewTicker(1 * time.Second)
	defer checkTicker.Stop()

	lastActivity := time.Now()

	for {
		select {
		case line := <-t.Lines:
			if line == nil {
				continue
			}
			if line.Err != nil {
				log.Printf("Error reading from %s: %v", path, line.Err)
				continue
			}

			fileLogger.Info(line.Text)
			s.metrics.IncLinesShipped()
			lastActivity = time.Now()

		case <-checkTicker.C:
			// waking up from the blocking read to check context and idle timeout
			if s.config.FileIdleTimeout.Std() > 0 && time.Since(lastActivity) > s.config.FileIdleTimeout.Std() {
				return
			}

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Service) watchLoop() {
	defer s.subWg.Done()

	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			// Write also matters: it resurfaces files skipped earlier on a
			// full queue
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}

			info, err := os.Stat(event.Name)
			if err != nil {
				continue
			}
			if info.IsDir() {
				s.scanRoot(event.Name)
				continue
			}
			s.enqueueFile(event.Name)

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Watcher error: %v", err)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Service) rescanLoop() {
	defer s.subWg.Done()

	ticker := time.NewTicker(s.config.RescanInterval.Std())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.scanRoots()

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Service) scanRoots() {
	for _, root := range s.config.LogRoots {
		s.scanRoot(root)
	}
}

func (s *Service) scanRoot(root string) {
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Printf("Error accessing path %s: %v", path, err)
			return nil
		}
		if s.ctx.Err() != nil {
			return filepath.SkipAll
		}

		if info.IsDir() {
			if err := s.watcher.Add(path); err != nil {
				log.Printf("Failed to watch directory %s: %v", path, err)
			}
			return nil
		}

		s.enqueueFile(path)
		return nil
	})
	if err != nil {
		log.Printf("Error scanning %s: %v", root, err)
	}
}

// enqueueFile hands a discovered file to the worker pool once. A file stays
// tracked while queued or tailed; it becomes discoverable again after its
// tail exits or when a full queue forces a skip.
func (s *Service) enqueueFile(path string) {
	if !strings.HasSuffix(path, ".log") {
		return
	}

	s.seenMutex.Lock()
	if _, ok := s.seenFiles[path]; ok {
		s.seenMutex.Unlock()
		return
	}
	s.seenFiles[path] = struct{}{}
	s.seenMutex.Unlock()

	s.metrics.IncFilesDiscovered()

	select {
	case s.fileQueue <- path:
		s.metrics.IncQueuedFiles()

	case <-s.ctx.Done():
		s.forgetFile(path)

	default:
		log.Printf("File queue full (%d/%d), skipping %s",
			len(s.fileQueue), cap(s.fileQueue), path)
		s.forgetFile(path)
	}
}

func (s *Service) forgetFile(path string) {
	s.seenMutex.Lock()
	defer s.seenMutex.Unlock()
	delete(s.seenFiles, path)
}

func (s *Service) metricsReporter() {
	defer s.subWg.Done()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			metrics := s.metrics.GetMetricsStamp()
			queueUsage := s.metrics.GetQueueUsage()

			log.Printf(
				"Metrics: workers busy=%d/%d, queue=%d/%d (%d%%), files tailed=%d/%d, failed=%d, lines shipped=%d",
				metrics.WorkersBusy, s.config.Workers,
				metrics.QueuedFiles, s.config.FileQueueSize, int(queueUsage*100),
				metrics.FilesTailed, metrics.FilesDiscovered,
				metrics.FilesFailed,
				metrics.LinesShipped,
			)

		case <-s.ctx.Done():
			return
		}
	}
}
