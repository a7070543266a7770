//go:build windows

package overlay

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"runtime"
	"syscall"
	"time"
	"unsafe"

	"github.com/lxn/win"

	"flash-insight/src/region"
	"flash-insight/src/selection"
)

const (
	overlayKeyPollTimerID    = 1
	overlayKeyPollIntervalMs = 25
)

var (
	user32DLL                    = syscall.NewLazyDLL("user32.dll")
	procAllowSetForegroundWindow = user32DLL.NewProc("AllowSetForegroundWindow")
	procGetAsyncKeyState         = user32DLL.NewProc("GetAsyncKeyState")

	gdi32DLL      = syscall.NewLazyDLL("gdi32.dll")
	procCreatePen = gdi32DLL.NewProc("CreatePen")
	procRectangle = gdi32DLL.NewProc("Rectangle")
)

// State for the one overlay window that can exist at a time. The window
// procedure is a plain callback, so it reaches the session through here.
var (
	nativeHwnd          win.HWND
	nativeSession       *selection.Session
	nativeFrame         *selection.Frame
	nativeBackdrop      *image.RGBA
	nativeCursor        win.HCURSOR
	nativeEscapeWasDown bool
	nativeResult        chan nativeOutcome
)

type nativeOutcome struct {
	rect region.Rect
	err  error
}

type windowsSelector struct {
	opts Options
}

func newNativeSelector(opts Options) Selector { return &windowsSelector{opts: opts} }

func (w *windowsSelector) Select(ctx context.Context, display region.Display) (region.Rect, bool, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	sess, err := selection.Begin(display, selection.ObserverFuncs{
		OnRedraw: func(f selection.Frame) {
			nativeFrame = &f
			repaint()
		},
		OnRestore: func() {
			nativeFrame = nil
			repaint()
		},
	}, w.opts.sessionOptions()...)
	if err != nil {
		return region.Rect{}, false, err
	}

	bg, err := w.opts.Backdrop(display)
	if err != nil {
		return region.Rect{}, false, fmt.Errorf("failed to capture screen: %w", err)
	}

	nativeSession = sess
	nativeBackdrop = bg
	nativeFrame = nil
	nativeEscapeWasDown = false
	nativeResult = make(chan nativeOutcome, 1)
	defer func() {
		nativeSession = nil
		nativeBackdrop = nil
		nativeFrame = nil
	}()

	nativeCursor = win.LoadCursor(0, win.MAKEINTRESOURCE(win.IDC_CROSS))

	className := syscall.StringToUTF16Ptr(fmt.Sprintf("FlashInsightOverlay_%d", time.Now().UnixNano()))
	wndClass := win.WNDCLASSEX{
		CbSize:        uint32(unsafe.Sizeof(win.WNDCLASSEX{})),
		Style:         win.CS_HREDRAW | win.CS_VREDRAW,
		LpfnWndProc:   syscall.NewCallback(overlayWndProc),
		HInstance:     win.GetModuleHandle(nil),
		HCursor:       nativeCursor,
		LpszClassName: className,
	}
	if win.RegisterClassEx(&wndClass) == 0 {
		return region.Rect{}, false, errors.New("failed to register window class")
	}
	defer win.UnregisterClass(className)

	// The popup covers exactly one display, so client coordinates are
	// display-local.
	nativeHwnd = win.CreateWindowEx(
		win.WS_EX_TOPMOST|win.WS_EX_TOOLWINDOW,
		className,
		syscall.StringToUTF16Ptr("Select area - drag to select, ESC cancels"),
		win.WS_POPUP|win.WS_VISIBLE,
		int32(display.X), int32(display.Y), int32(display.Width), int32(display.Height),
		0, 0, win.GetModuleHandle(nil), nil,
	)
	if nativeHwnd == 0 {
		return region.Rect{}, false, errors.New("failed to create overlay window")
	}
	log.Printf("OVERLAY: window at %s on display %d", display.Bounds(), display.Index)

	win.ShowWindow(nativeHwnd, win.SW_SHOW)
	procAllowSetForegroundWindow.Call(uintptr(os.Getpid()))
	win.SetForegroundWindow(nativeHwnd)
	win.BringWindowToTop(nativeHwnd)
	win.SetFocus(nativeHwnd)
	win.UpdateWindow(nativeHwnd)
	if win.SetTimer(nativeHwnd, overlayKeyPollTimerID, overlayKeyPollIntervalMs, 0) == 0 {
		log.Printf("OVERLAY: Failed to start keyboard poll timer")
	}

	hwnd := nativeHwnd
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			win.PostMessage(hwnd, win.WM_CLOSE, 0, 0)
		case <-stop:
		}
	}()

	var msg win.MSG
	for {
		ret := win.GetMessage(&msg, 0, 0, 0)
		if ret == 0 || ret == -1 {
			break
		}
		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)

		select {
		case out := <-nativeResult:
			win.DestroyWindow(nativeHwnd)
			return out.rect, false, out.err
		default:
		}
	}

	win.DestroyWindow(nativeHwnd)
	log.Printf("OVERLAY: selection cancelled")
	return region.Rect{}, true, nil
}

func overlayWndProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	switch msg {
	case win.WM_LBUTTONDOWN:
		win.SetCapture(hwnd)
		if nativeSession != nil {
			_ = nativeSession.Press(clientPoint(lParam))
		}
		return 0

	case win.WM_MOUSEMOVE:
		if nativeSession != nil {
			nativeSession.Move(clientPoint(lParam))
		}
		return 0

	case win.WM_LBUTTONUP:
		win.ReleaseCapture()
		if nativeSession == nil || !nativeSession.Active() {
			return 0
		}
		nativeSession.Move(clientPoint(lParam))
		rect, err := nativeSession.Release()
		nativeResult <- nativeOutcome{rect: rect, err: err}
		return 0

	case win.WM_PAINT:
		var ps win.PAINTSTRUCT
		hdc := win.BeginPaint(hwnd, &ps)
		if nativeBackdrop != nil {
			drawBackdrop(hdc, nativeBackdrop)
		}
		drawHint(hdc)
		if nativeFrame != nil {
			drawBand(hdc, *nativeFrame)
		}
		win.EndPaint(hwnd, &ps)
		return 0

	case win.WM_SETCURSOR:
		if nativeCursor != 0 {
			win.SetCursor(nativeCursor)
		}
		return 1

	case win.WM_TIMER:
		if wParam == overlayKeyPollTimerID {
			pollEscape()
		}
		return 0

	case win.WM_KEYDOWN:
		if wParam == win.VK_ESCAPE {
			nativeEscapeWasDown = true
			cancelSelection()
		}
		return 0

	case win.WM_KEYUP:
		if wParam == win.VK_ESCAPE {
			nativeEscapeWasDown = false
		}
		return 0

	case win.WM_CLOSE:
		cancelSelection()
		return 0

	case win.WM_NCHITTEST:
		return uintptr(win.HTCLIENT)

	case win.WM_DESTROY:
		win.KillTimer(hwnd, overlayKeyPollTimerID)
		// No PostQuitMessage: a leftover WM_QUIT would end the next
		// selection immediately.
		return 0
	}

	return win.DefWindowProc(hwnd, msg, wParam, lParam)
}

func clientPoint(lParam uintptr) region.Point {
	// Coordinates are signed 16-bit values packed into lParam.
	return region.Point{
		X: int(int16(win.LOWORD(uint32(lParam)))),
		Y: int(int16(win.HIWORD(uint32(lParam)))),
	}
}

func repaint() {
	if nativeHwnd == 0 {
		return
	}
	win.InvalidateRect(nativeHwnd, nil, false)
	win.UpdateWindow(nativeHwnd)
}

// pollEscape catches Escape when the overlay did not get keyboard focus.
func pollEscape() {
	state, _, _ := procGetAsyncKeyState.Call(uintptr(win.VK_ESCAPE))
	s := uint16(state)
	down := s&0x8000 != 0
	pressed := s&0x0001 != 0
	if !nativeEscapeWasDown && (down || pressed) {
		cancelSelection()
	}
	nativeEscapeWasDown = down
}

func cancelSelection() {
	if nativeSession != nil {
		nativeSession.Cancel()
	}
	win.PostQuitMessage(0)
}

func drawBand(hdc win.HDC, f selection.Frame) {
	redPen, _, _ := procCreatePen.Call(0, 3, 0x0000FF)
	oldPen := win.SelectObject(hdc, win.HGDIOBJ(redPen))
	oldBrush := win.SelectObject(hdc, win.GetStockObject(win.NULL_BRUSH))

	r := f.Rect
	procRectangle.Call(uintptr(hdc), uintptr(r.X), uintptr(r.Y), uintptr(r.X+r.Width), uintptr(r.Y+r.Height))

	win.SelectObject(hdc, oldPen)
	win.SelectObject(hdc, oldBrush)
	win.DeleteObject(win.HGDIOBJ(redPen))

	win.SetBkMode(hdc, win.TRANSPARENT)
	win.SetTextColor(hdc, win.COLORREF(0x0000FF))
	label, _ := syscall.UTF16FromString(f.Label)
	if len(label) > 1 {
		win.TextOut(hdc, int32(r.X), int32(r.Y+r.Height+4), &label[0], int32(len(label)-1))
	}
}

func drawHint(hdc win.HDC) {
	hint := "ESC cancel   drag to select"
	win.SetBkMode(hdc, win.TRANSPARENT)
	win.SetTextColor(hdc, win.COLORREF(0x00FFFF))
	win.TextOut(hdc, 16, 16, syscall.StringToUTF16Ptr(hint), int32(len(hint)))
}

// drawBackdrop blits the captured display as the window background.
func drawBackdrop(hdc win.HDC, img *image.RGBA) {
	memDC := win.CreateCompatibleDC(hdc)
	defer win.DeleteDC(memDC)

	width, height := img.Bounds().Dx(), img.Bounds().Dy()
	bitmapInfo := win.BITMAPINFO{
		BmiHeader: win.BITMAPINFOHEADER{
			BiSize:        uint32(unsafe.Sizeof(win.BITMAPINFOHEADER{})),
			BiWidth:       int32(width),
			BiHeight:      -int32(height), // top-down
			BiPlanes:      1,
			BiBitCount:    32,
			BiCompression: win.BI_RGB,
		},
	}

	var pBits unsafe.Pointer
	hBitmap := win.CreateDIBSection(memDC, &bitmapInfo.BmiHeader, win.DIB_RGB_COLORS, &pBits, 0, 0)
	if hBitmap == 0 {
		return
	}
	defer win.DeleteObject(win.HGDIOBJ(hBitmap))

	oldBitmap := win.SelectObject(memDC, win.HGDIOBJ(hBitmap))
	defer win.SelectObject(memDC, oldBitmap)

	// 32bpp rows are already DWORD aligned.
	dst := unsafe.Slice((*byte)(pBits), width*height*4)
	copyRGBAToBGRA(dst, img)

	win.BitBlt(hdc, 0, 0, int32(width), int32(height), memDC, 0, 0, win.SRCCOPY)
}
