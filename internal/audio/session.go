// Package audio предоставляет запись аудио с микрофона с приведением
// к частоте, которую требует движок распознавания.
package audio

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

const (
	// SampleRate - целевая частота дискретизации (требование Whisper).
	SampleRate = 16000
	// Channels - количество каналов (mono).
	Channels = 1
	// FramesPerBuffer - размер буфера чтения.
	FramesPerBuffer = 1024
)

// Ошибки открытия устройства захвата.
var (
	ErrDeviceUnavailable = errors.New("устройство ввода недоступно")
	ErrUnsupportedFormat = errors.New("неподдерживаемый формат сэмплов")
)

// Session владеет стримом захвата и накопленными сэмплами.
// Жизненный цикл: Idle -> Start() -> Recording -> Stop() -> Idle.
// Закрытие стрима в Stop - единственный способ освободить микрофон.
type Session struct {
	mu         sync.Mutex
	stream     *portaudio.Stream
	resampler  *Resampler
	out        []float32 // сэмплы, уже приведённые к SampleRate
	f32buf     []float32
	i16buf     []int16
	i32buf     []int32
	format     SampleFormat
	sampleRate int
	running    bool
	done       chan struct{}
}

// NewSession инициализирует portaudio и создаёт сессию захвата.
func NewSession() (*Session, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	return &Session{}, nil
}

// Start открывает устройство ввода по умолчанию и начинает запись.
// Предпочитается точная частота SampleRate; если устройство её не
// поддерживает, используется его частота по умолчанию, и дальше
// работает Resampler. Повторный вызов во время записи - no-op.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	dev, err := portaudio.DefaultInputDevice()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	stream, rate, format, err := s.open(dev)
	if err != nil {
		return err
	}

	s.resampler = NewResampler(rate, SampleRate)
	if rate != SampleRate && s.resampler.Ratio() == 1 {
		// Известное ограничение: частота не кратна целевой,
		// сэмплы пройдут без ресемплинга.
		log.Printf("Частота устройства %d Гц не кратна %d Гц, запись без ресемплинга", rate, SampleRate)
	}

	s.out = make([]float32, 0, SampleRate*30)
	s.sampleRate = rate
	s.format = format
	s.done = make(chan struct{})

	if err := stream.Start(); err != nil {
		stream.Close()
		return err
	}

	s.stream = stream
	s.running = true
	log.Printf("Запись: %d Гц, формат %s", rate, format)

	go s.readLoop()

	return nil
}

// open подбирает рабочую комбинацию частоты и формата сэмплов.
// Сначала пробуем целевую частоту, потом частоту устройства по
// умолчанию; для каждой - float32, int16, int32.
func (s *Session) open(dev *portaudio.DeviceInfo) (*portaudio.Stream, int, SampleFormat, error) {
	rates := []float64{SampleRate}
	if dev.DefaultSampleRate != SampleRate {
		rates = append(rates, dev.DefaultSampleRate)
	}

	for _, rate := range rates {
		params := portaudio.StreamParameters{
			Input: portaudio.StreamDeviceParameters{
				Device:   dev,
				Channels: Channels,
				Latency:  dev.DefaultLowInputLatency,
			},
			SampleRate:      rate,
			FramesPerBuffer: FramesPerBuffer,
		}

		for _, format := range []SampleFormat{FormatFloat32, FormatInt16, FormatInt32} {
			var (
				stream *portaudio.Stream
				err    error
			)
			switch format {
			case FormatFloat32:
				s.f32buf = make([]float32, FramesPerBuffer)
				stream, err = portaudio.OpenStream(params, s.f32buf)
			case FormatInt16:
				s.i16buf = make([]int16, FramesPerBuffer)
				stream, err = portaudio.OpenStream(params, s.i16buf)
			case FormatInt32:
				s.i32buf = make([]int32, FramesPerBuffer)
				stream, err = portaudio.OpenStream(params, s.i32buf)
			}
			if err == nil {
				return stream, int(rate), format, nil
			}
		}
	}

	return nil, 0, 0, ErrUnsupportedFormat
}

// readLoop вычитывает сэмплы из стрима и прогоняет их через Resampler.
// Критическая секция - только конвертация и append, без I/O.
func (s *Session) readLoop() {
	defer close(s.done)

	conv := make([]float32, 0, FramesPerBuffer)

	for {
		s.mu.Lock()
		running := s.running
		stream := s.stream
		s.mu.Unlock()

		if !running || stream == nil {
			return
		}

		available, err := stream.AvailableToRead()
		if err != nil || available < FramesPerBuffer {
			time.Sleep(10 * time.Millisecond)
			continue
		}

		if err := stream.Read(); err != nil {
			// Стрим мог быть закрыт в Stop - проверяем и ждём
			s.mu.Lock()
			running = s.running
			s.mu.Unlock()
			if !running {
				return
			}
			time.Sleep(10 * time.Millisecond)
			continue
		}

		conv = conv[:0]
		switch s.format {
		case FormatFloat32:
			conv = append(conv, s.f32buf...)
		case FormatInt16:
			conv = int16ToFloat32(conv, s.i16buf)
		case FormatInt32:
			conv = int32ToFloat32(conv, s.i32buf)
		}

		s.mu.Lock()
		if s.running {
			s.out = s.resampler.Process(s.out, conv)
		}
		s.mu.Unlock()
	}
}

// Stop останавливает запись и возвращает накопленные сэмплы (16 кГц).
// Стрим закрывается сразу - это освобождает микрофон. Вызов без
// активной записи возвращает nil.
func (s *Session) Stop() []float32 {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}

	s.running = false
	stream := s.stream
	s.stream = nil
	out := s.out
	s.out = nil
	s.resampler = nil
	done := s.done
	rate := s.sampleRate
	s.mu.Unlock()

	// Ждём завершения readLoop: он замечает running=false в пределах
	// одного опроса (10 мс). Без ожидания уцелевший цикл мог бы
	// пережить следующий Start и писать в его буферы.
	if done != nil {
		<-done
	}

	if stream != nil {
		stream.Stop()
		stream.Close()
		log.Printf("Запись остановлена, микрофон освобождён: %d сэмплов (устройство %d Гц)", len(out), rate)
	}

	return out
}

// IsRecording возвращает true если идёт запись.
func (s *Session) IsRecording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// SampleCount возвращает текущее число накопленных сэмплов.
func (s *Session) SampleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.out)
}

// Close освобождает ресурсы сессии.
func (s *Session) Close() {
	s.Stop()
	portaudio.Terminate()
}
