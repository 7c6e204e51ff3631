package directory

const peopleResultsHTML = `<html><body>
<ul class="reusable-search__entity-result-list">
  <li class="reusable-search__result-container">
    <div data-chameleon-result-urn="urn:li:member:1">
      <span class="QRsBGGTkAVlVMqjnfUqhRnPZLBuQJInSvQ">
        <a href="https://www.linkedin.com/in/jane-doe?miniProfileUrn=abc">
          <span dir="ltr"><span aria-hidden="true">Jane Doe</span><span class="visually-hidden">View Jane Doe's profile</span></span>
        </a>
      </span>
      <div class="MPFWKoQFBIWsWGqHMHsTCFjPNOuEhvFGtlc">VP of Sales</div>
      <p class="ckfYekxlWGHuLQxABvYtwvKQDRAmJqhxg">Current: VP of Sales at Acme</p>
    </div>
  </li>
  <li class="reusable-search__result-container">
    <div data-chameleon-result-urn="urn:li:member:2">
      <span class="QRsBGGTkAVlVMqjnfUqhRnPZLBuQJInSvQ">
        <a href="/in/bob-smith?trk=search">View Bob Smith's profile</a>
      </span>
      <div class="MPFWKoQFBIWsWGqHMHsTCFjPNOuEhvFGtlc">Chief Technology Officer</div>
    </div>
  </li>
  <li class="reusable-search__result-container">
    <div data-chameleon-result-urn="urn:li:member:3">
      <span class="QRsBGGTkAVlVMqjnfUqhRnPZLBuQJInSvQ">
        <a href="https://www.linkedin.com/in/no-title"><span dir="ltr"><span aria-hidden="true">No Title</span></span></a>
      </span>
    </div>
  </li>
  <li class="reusable-search__result-container">
    <div data-chameleon-result-urn="urn:li:member:4">
      <span>LinkedIn Member</span>
      <div class="MPFWKoQFBIWsWGqHMHsTCFjPNOuEhvFGtlc">Director of Marketing</div>
    </div>
  </li>
  <li class="reusable-search__result-container">
    <div data-chameleon-result-urn="urn:li:member:5">
      <span class="QRsBGGTkAVlVMqjnfUqhRnPZLBuQJInSvQ">
        <a href="https://www.linkedin.com/in/carol-white"><span dir="ltr"><span aria-hidden="true">Carol White</span></span></a>
      </span>
      <div class="MPFWKoQFBIWsWGqHMHsTCFjPNOuEhvFGtlc">Head of Engineering</div>
    </div>
  </li>
</ul>
</body></html>`

// Older markup without the obfuscated classes.
const legacyResultsHTML = `<html><body>
<div class="search-results-container">
  <div class="entity-result">
    <span class="entity-result__title-text"><a href="https://www.linkedin.com/in/dan-brown"><span aria-hidden="true">Dan Brown</span></a></span>
    <div class="entity-result__primary-subtitle">Head of Sales at Globex</div>
    <p class="entity-result__summary">Past: Initech</p>
  </div>
  <div class="entity-result">
    <span class="entity-result__title-text"><a href="https://www.linkedin.com/in/eve-adams"><span aria-hidden="true">Eve Adams</span></a></span>
    <div class="entity-result__primary-subtitle">Software Engineer</div>
    <p class="entity-result__summary">Current: Staff Engineer at Globex</p>
  </div>
  <div class="entity-result">
    <span class="entity-result__title-text"><a href="https://www.linkedin.com/in/finn-gray"><span aria-hidden="true">Finn Gray</span></a></span>
    <div class="entity-result__primary-subtitle">VP Marketing at Initech</div>
  </div>
  <div class="entity-result">
    <span class="entity-result__title-text"><a href="https://www.linkedin.com/in/gia-long"><span aria-hidden="true">Gia Long</span></a></span>
    <div class="entity-result__primary-subtitle">CTO @ Globex</div>
  </div>
</div>
</body></html>`

const unknownLayoutHTML = `<html><body><div class="captcha-challenge">Let's do a quick security check</div></body></html>`

const emptyResultsHTML = `<html><body><ul>
  <li class="reusable-search__result-container"><div>No results found</div></li>
</ul></body></html>`

const companyResultsHTML = `<html><body>
<ul>
  <li><a href="https://www.linkedin.com/company/acme-widgets/"><span class="t-16">Acme</span></a></li>
  <li><a href="https://www.linkedin.com/company/555/"><span class="artdeco-entity-lockup__title"></span></a></li>
  <li><a href="https://www.linkedin.com/company/777/"><span class="artdeco-entity-lockup__title">Globex</span></a></li>
  <li><a href="https://www.linkedin.com/company/12345/"><span class="artdeco-entity-lockup__title">Acme Corp</span></a></li>
  <li><a href="https://www.linkedin.com/company/67890/"><span class="entity-result__title-text">Acme Corp Holdings</span></a></li>
</ul>
</body></html>`

func profileHTML(role, employer string) string {
	return `<html><body><main>
<section><div id="experience"></div>
  <ul class="cNpTaOHypiAvlEPOELGpZYejBRGdRjzZYE">
    <li class="artdeco-list__item">
      <div class="t-bold"><span aria-hidden="true">` + role + `</span></div>
      <span class="t-14 t-normal"><span aria-hidden="true">` + employer + `</span></span>
    </li>
    <li class="artdeco-list__item">
      <div class="t-bold"><span aria-hidden="true">Previous Role</span></div>
      <span class="t-14 t-normal"><span aria-hidden="true">Old Co · Full-time</span></span>
    </li>
  </ul>
</section>
</main></body></html>`
}

const profileNoExperienceHTML = `<html><body><main><section><h2>About</h2></section></main></body></html>`

const profileEmptyListHTML = `<html><body><ul class="cNpTaOHypiAvlEPOELGpZYejBRGdRjzZYE"></ul></body></html>`

const profileStructuralHTML = `<html><body>
<section><div id="experience"></div>
  <div class="pvs-list__outer-container"><ul>
    <li><div class="t-bold"><span aria-hidden="true">Staff Engineer</span></div>
      <span class="t-14 t-normal"><span aria-hidden="true">Globex · Contract</span></span></li>
  </ul></div>
</section>
</body></html>`
