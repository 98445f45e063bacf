/* socketapi/router.go */

package socketapi

// Router is a standalone registry fragment that can be composed into an
// App via IncludeRouter (§6.4, §9: "Routers are not a separate runtime
// concept; they are registry fragments merged at startup"). Grounded on
// seam.go's Router/NewRouter/.Procedure()/.Subscription() builder idiom.
type Router struct {
	reg *registry

	// channelHandles remembers every channel handle registered directly on
	// this router, so IncludeRouter can rebind them to the owning App once
	// merged (§12, router.py's FuncRef.set()).
	channelHandles []registrant
}

func NewRouter() *Router {
	return &Router{reg: newRegistry()}
}

// AddAction registers a typed action handle on this router.
func (r *Router) AddAction(h registrant) error {
	_, err := r.reg.addAction(h.raw())
	return err
}

// AddChannel registers a typed channel handle on this router. The handle
// is not callable (ChannelHandle.Call returns ErrNotRegistered) until the
// router is merged into an App via IncludeRouter.
func (r *Router) AddChannel(h registrant) error {
	if _, err := r.reg.addChannel(h.raw()); err != nil {
		return err
	}
	r.channelHandles = append(r.channelHandles, h)
	return nil
}

// AddDependency registers a typed dependency handle on this router.
func (r *Router) AddDependency(h registrant) error {
	_, err := r.reg.addDependency(h.raw())
	return err
}
